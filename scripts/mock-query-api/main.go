// Command mock-query-api serves canned loyalty aggregates for local
// development, so the engine can be exercised without a real warehouse.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
)

func main() {
	addr := flag.String("addr", ":4000", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /query", handleQuery)

	log.Printf("mock query API listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func handleQuery(w http.ResponseWriter, r *http.Request) {
	sqlQuery := r.URL.Query().Get("query")
	if sqlQuery == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "query parameter is required",
		})
		return
	}

	q := strings.ToLower(sqlQuery)
	log.Printf("query: %s", sqlQuery)

	switch {
	case strings.Contains(q, "transaction_type") || strings.Contains(q, "group by"):
		// Points breakdown by source
		writeJSON(w, http.StatusOK, []map[string]any{
			{"transaction_type": "payment_reward", "total_points": 166163746},
			{"transaction_type": "achievement_reward", "total_points": 11208450},
			{"transaction_type": "manual_reward", "total_points": 6933274},
			{"transaction_type": "manual_accumulation", "total_points": 179350},
			{"transaction_type": "refund", "total_points": 0},
			{"transaction_type": "migration", "total_points": 0},
		})
	case strings.Contains(q, "sum(") && strings.Contains(q, "points"):
		writeJSON(w, http.StatusOK, []map[string]any{
			{"total_earned_points": 170618272},
		})
	case strings.Contains(q, "count(") && strings.Contains(q, "customers"):
		writeJSON(w, http.StatusOK, []map[string]any{
			{"customer_count": 48312},
		})
	case strings.Contains(q, "challenges") || strings.Contains(q, "challenge_completions"):
		writeJSON(w, http.StatusOK, []map[string]any{
			{"challenge_name": "Weekly Streak", "completions": 1243, "points_awarded": 621500},
			{"challenge_name": "First Purchase", "completions": 877, "points_awarded": 87700},
			{"challenge_name": "Referral Bonus", "completions": 312, "points_awarded": 156000},
		})
	case strings.Contains(q, "customers"):
		writeJSON(w, http.StatusOK, []map[string]any{
			{"customer_id": 10001, "tier": "gold", "points_balance": 15230},
			{"customer_id": 10002, "tier": "silver", "points_balance": 4210},
			{"customer_id": 10003, "tier": "bronze", "points_balance": 760},
		})
	default:
		writeJSON(w, http.StatusOK, []map[string]any{})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}
