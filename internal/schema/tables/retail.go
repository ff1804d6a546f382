package tables

import "github.com/JonMunkholm/synthedata/internal/schema"

func init() {
	registerCustomers()
	registerProducts()
	registerTransactions()
}

func registerCustomers() {
	schema.Register(schema.Definition{
		Domain: "retail",
		Table:  "customers",
		Label:  "Customers",
		Fields: []schema.FieldDef{
			{Name: "customer_id", Type: "integer", Min: num(1), Max: num(999999)},
			text("full_name", "full_name"),
			{Name: "email", Type: "string", Pattern: "email", Nullable: true},
			{Name: "phone", Type: "string", Pattern: "phone", Nullable: true},
			{Name: "city", Type: "string", Pattern: "city", Nullable: true},
			{Name: "segment", Type: "categorical",
				Labels:  []string{"consumer", "small_business", "enterprise"},
				Weights: map[string]float64{"consumer": 70, "small_business": 25, "enterprise": 5}},
			{Name: "signup_at", Type: "datetime", WindowDays: 1095},
			{Name: "marketing_opt_in", Type: "boolean", Nullable: true},
		},
		DuplicateProne: []string{"email", "full_name"},
	})
}

func registerProducts() {
	schema.Register(schema.Definition{
		Domain: "retail",
		Table:  "products",
		Label:  "Products",
		Fields: []schema.FieldDef{
			{Name: "sku", Type: "string", Pattern: "code", MinLength: 8, MaxLength: 8},
			{Name: "name", Type: "string", Pattern: "text", MinLength: 8, MaxLength: 24},
			{Name: "category", Type: "categorical",
				Labels: []string{"grocery", "apparel", "electronics", "home", "toys"}},
			{Name: "list_price", Type: "decimal", Min: num(0.5), Max: num(2500)},
			{Name: "discontinued", Type: "boolean"},
		},
		NaturalKey: []string{"sku"},
	})
}

func registerTransactions() {
	schema.Register(schema.Definition{
		Domain: "retail",
		Table:  "transactions",
		Label:  "Transactions",
		Fields: []schema.FieldDef{
			{Name: "transaction_id", Type: "string", Pattern: "uuid"},
			ref("customer_id", "customers"),
			{Name: "qty", Type: "integer", Min: num(1), Max: num(20), Nullable: true},
			{Name: "unit_price", Type: "decimal", Min: num(0.5), Max: num(500), Nullable: true},
			{Name: "channel", Type: "categorical", Nullable: true,
				Labels: []string{"store", "web", "mobile", "phone"}},
			{Name: "transacted_at", Type: "datetime", WindowDays: 180},
			{Name: "memo", Type: "string", Pattern: "text", MinLength: 0, MaxLength: 40, Nullable: true},
		},
	})
}
