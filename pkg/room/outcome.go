package room

import "fmt"

// DefaultSuccessProbability is the chance an action succeeds.
const DefaultSuccessProbability = 0.7

var discoverySample = []string{"server1", "server2", "firewall"}

// resolveAction rolls for success and attaches the effect template for the
// action type.
func resolveAction(rnd Random, p float64, action, target string) Outcome {
	out := Outcome{Success: rnd.Float64() < p}

	var effect Effect
	switch action {
	case "scan":
		effect = Effect{
			Type:            "discovery",
			Details:         "Network scan completed",
			DiscoveredItems: append([]string(nil), discoverySample...),
		}
	case "exploit":
		if out.Success {
			effect = Effect{Type: "compromise", Details: "Vulnerability successfully exploited"}
		} else {
			effect = Effect{Type: "alert", Details: "Exploit attempt detected"}
		}
	case "defend":
		effect = Effect{Type: "protection", Details: "Defense mechanism deployed"}
	default:
		effect = Effect{Type: "action", Details: fmt.Sprintf("Action %s performed", action)}
	}
	effect.Target = target
	out.Effects = []Effect{effect}
	return out
}
