package tables

import "github.com/JonMunkholm/synthedata/internal/schema"

func id(domain, table string) schema.TableID {
	return schema.TableID{Domain: domain, Table: table}
}

func init() {
	schema.RegisterEcosystem(schema.Ecosystem{
		Key:          "retail_store",
		Name:         "Retail store",
		Description:  "Customers with their purchases, the product catalog and support tickets",
		BusinessType: "retail",
		Primary:      id("retail", "customers"),
		Secondaries: []schema.TableID{
			id("retail", "products"),
			id("retail", "transactions"),
			id("support", "tickets"),
		},
		Ratios: map[schema.TableID]float64{
			id("retail", "products"):     0.2,
			id("retail", "transactions"): 5,
			id("support", "tickets"):     0.3,
		},
	})

	schema.RegisterEcosystem(schema.Ecosystem{
		Key:          "hr_workforce",
		Name:         "Workforce",
		Description:  "Employees, their departments and daily timesheets",
		BusinessType: "hr",
		Primary:      id("hr_core", "employees"),
		Secondaries: []schema.TableID{
			id("hr_core", "departments"),
			id("hr_core", "timesheets"),
		},
		Ratios: map[schema.TableID]float64{
			id("hr_core", "departments"): 0.05,
			id("hr_core", "timesheets"):  8,
		},
	})
}
