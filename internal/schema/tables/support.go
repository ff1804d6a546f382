package tables

import "github.com/JonMunkholm/synthedata/internal/schema"

func init() {
	registerTickets()
}

func registerTickets() {
	schema.Register(schema.Definition{
		Domain: "support",
		Table:  "tickets",
		Label:  "Tickets",
		Fields: []schema.FieldDef{
			{Name: "ticket_id", Type: "integer", Min: num(100000), Max: num(999999)},
			ref("customer_id", "retail.customers"),
			{Name: "subject", Type: "string", Pattern: "text", MinLength: 10, MaxLength: 60},
			{Name: "priority", Type: "categorical",
				Labels:  []string{"low", "medium", "high", "urgent"},
				Weights: map[string]float64{"low": 40, "medium": 35, "high": 20, "urgent": 5}},
			{Name: "status", Type: "categorical",
				Labels: []string{"open", "pending", "solved", "closed"}},
			{Name: "agent_email", Type: "string", Pattern: "email", Nullable: true},
			{Name: "opened_at", Type: "datetime", WindowDays: 120},
			{Name: "satisfaction", Type: "integer", Min: num(1), Max: num(5), Nullable: true},
		},
		DuplicateProne: []string{"agent_email"},
	})
}
