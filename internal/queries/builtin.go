package queries

// Builtin returns the default documents for the eight gateway
// operations. A DirStore layered in front (see Fallback) lets a
// deployment override any of them with .graphql files.
func Builtin() MapStore {
	return MapStore{
		"Login": `mutation Login($username: String!, $password: String!) {
  login(username: $username, password: $password) {
    response {
      accessToken
      refreshToken
      expiresIn
    }
  }
}`,
		"GetUser": `query GetUser($businessPartnerKey: String) {
  getUser(businessPartnerKey: $businessPartnerKey) {
    id
    email
    businessPartners {
      id
      name
      outlets
    }
  }
}`,
		"SearchResultItem": `query SearchResultItem($query: String!, $page: Int!, $pageSize: Int!) {
  searchResults(query: $query, page: $page, pageSize: $pageSize) {
    items {
      id
      name
      price
      category
      inStock
    }
    totalCount
  }
}`,
		"LoadProfilePointAndReward": `query LoadProfilePointAndReward {
  profile {
    points
    tier
    rewards {
      id
      name
      cost
    }
  }
}`,
		"Cart": `query Cart {
  cart {
    items {
      productId
      quantity
      unitPrice
    }
    total
    currency
  }
}`,
		"Notifications": `query Notifications($unreadOnly: Boolean) {
  notifications(unreadOnly: $unreadOnly) {
    id
    title
    read
    createdAt
  }
}`,
		"ChangeOutlet": `mutation ChangeOutlet($outletId: String!, $businessPartnerKey: String) {
  changeOutlet(outletId: $outletId, businessPartnerKey: $businessPartnerKey) {
    success
    outletId
  }
}`,
		"OrderStreakOffers": `query OrderStreakOffers {
  orderStreakOffers {
    offers {
      id
      requiredOrders
      reward
    }
  }
}`,
	}
}
