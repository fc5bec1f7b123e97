package vuser

// The fixed operation set the behavior engine knows how to parameterize.
const (
	OpLogin                     = "Login"
	OpGetUser                   = "GetUser"
	OpSearchResultItem          = "SearchResultItem"
	OpLoadProfilePointAndReward = "LoadProfilePointAndReward"
	OpCart                      = "Cart"
	OpNotifications             = "Notifications"
	OpChangeOutlet              = "ChangeOutlet"
	OpOrderStreakOffers         = "OrderStreakOffers"
)

// Payload paths the engine extracts session state from.
const (
	accessTokenPath = "data.login.response.accessToken"
	outletIDsPath   = "data.getUser.businessPartners.#.id"
)

var operations = map[string]bool{
	OpLogin:                     true,
	OpGetUser:                   true,
	OpSearchResultItem:          true,
	OpLoadProfilePointAndReward: true,
	OpCart:                      true,
	OpNotifications:             true,
	OpChangeOutlet:              true,
	OpOrderStreakOffers:         true,
}

func knownOperation(op string) bool { return operations[op] }

// searchTerms feeds SearchResultItem with varied queries so backend
// caches don't flatten the load shape.
var searchTerms = []string{
	"mattress", "pillow", "duvet", "bed frame", "lamp",
	"blanket", "sheets", "wardrobe", "nightstand",
}
