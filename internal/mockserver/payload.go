package mockserver

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var productCategories = []string{"bedroom", "living", "kitchen", "outdoor", "office"}

var rewardNames = []string{"free delivery", "10% off", "double points", "birthday gift"}

// synthesize builds an operation-shaped success payload with
// pseudo-random but structurally valid values, padded per size class.
// Unrecognized operations get a generic success payload; the mock layer
// never fails an unknown operation.
func synthesize(operation string, size SizeClass, rng *rand.Rand) map[string]any {
	var data map[string]any

	switch operation {
	case "Login":
		data = map[string]any{
			"login": map[string]any{
				"response": map[string]any{
					"accessToken":  "mock-" + uuid.NewString(),
					"refreshToken": "mock-" + uuid.NewString(),
					"expiresIn":    3600,
				},
			},
		}
	case "GetUser":
		partners := make([]any, 0, size.listLength())
		for i := 0; i < size.listLength(); i++ {
			partners = append(partners, map[string]any{
				"id":      fmt.Sprintf("bp-%04d", rng.Intn(10000)),
				"name":    fmt.Sprintf("Outlet %d", i+1),
				"outlets": rng.Intn(5) + 1,
			})
		}
		data = map[string]any{
			"getUser": map[string]any{
				"id":               uuid.NewString(),
				"email":            fmt.Sprintf("user%d@example.com", rng.Intn(100000)),
				"businessPartners": partners,
			},
		}
	case "SearchResultItem":
		items := make([]any, 0, size.listLength())
		for i := 0; i < size.listLength(); i++ {
			items = append(items, map[string]any{
				"id":       uuid.NewString(),
				"name":     fmt.Sprintf("Product %d", rng.Intn(100000)),
				"price":    float64(rng.Intn(50000)) / 100,
				"category": productCategories[rng.Intn(len(productCategories))],
				"inStock":  rng.Intn(10) > 1,
			})
		}
		data = map[string]any{
			"searchResults": map[string]any{
				"items":      items,
				"totalCount": len(items) + rng.Intn(500),
			},
		}
	case "LoadProfilePointAndReward":
		rewards := make([]any, 0, 2)
		for i := 0; i < 2; i++ {
			rewards = append(rewards, map[string]any{
				"id":   uuid.NewString(),
				"name": rewardNames[rng.Intn(len(rewardNames))],
				"cost": rng.Intn(2000),
			})
		}
		data = map[string]any{
			"profile": map[string]any{
				"points":  rng.Intn(10000),
				"tier":    []string{"bronze", "silver", "gold"}[rng.Intn(3)],
				"rewards": rewards,
			},
		}
	case "Cart":
		count := rng.Intn(size.listLength()) + 1
		items := make([]any, 0, count)
		total := 0.0
		for i := 0; i < count; i++ {
			qty := rng.Intn(3) + 1
			price := float64(rng.Intn(20000)) / 100
			total += float64(qty) * price
			items = append(items, map[string]any{
				"productId": uuid.NewString(),
				"quantity":  qty,
				"unitPrice": price,
			})
		}
		data = map[string]any{
			"cart": map[string]any{
				"items":    items,
				"total":    total,
				"currency": "EUR",
			},
		}
	case "Notifications":
		notes := make([]any, 0, size.listLength())
		for i := 0; i < size.listLength(); i++ {
			notes = append(notes, map[string]any{
				"id":        uuid.NewString(),
				"title":     fmt.Sprintf("Notification %d", i+1),
				"read":      rng.Intn(2) == 0,
				"createdAt": time.Now().Add(-time.Duration(rng.Intn(72)) * time.Hour).UTC().Format(time.RFC3339),
			})
		}
		data = map[string]any{"notifications": notes}
	case "ChangeOutlet":
		data = map[string]any{
			"changeOutlet": map[string]any{
				"success":  true,
				"outletId": fmt.Sprintf("bp-%04d", rng.Intn(10000)),
			},
		}
	case "OrderStreakOffers":
		offers := make([]any, 0, 3)
		for i := 0; i < 3; i++ {
			offers = append(offers, map[string]any{
				"id":             uuid.NewString(),
				"requiredOrders": (i + 1) * 5,
				"reward":         rewardNames[rng.Intn(len(rewardNames))],
			})
		}
		data = map[string]any{
			"orderStreakOffers": map[string]any{"offers": offers},
		}
	default:
		data = map[string]any{"status": "success"}
	}

	if pad := size.paddingBytes(); pad > 0 {
		data["_padding"] = filler(pad, rng)
	}
	return map[string]any{"data": data}
}

// filler produces n bytes of compressible but non-constant content.
func filler(n int, rng *rand.Rand) string {
	var sb strings.Builder
	sb.Grow(n)
	for sb.Len() < n {
		fmt.Fprintf(&sb, "%08x", rng.Uint32())
	}
	return sb.String()[:n]
}
