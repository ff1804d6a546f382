package tables

import "github.com/JonMunkholm/synthedata/internal/schema"

func init() {
	registerEmployees()
	registerDepartments()
	registerTimesheets()
}

func registerEmployees() {
	schema.Register(schema.Definition{
		Domain: "hr_core",
		Table:  "employees",
		Label:  "Employees",
		Fields: []schema.FieldDef{
			{Name: "employee_id", Type: "integer", Min: num(1), Max: num(9999)},
			{Name: "first_name", Type: "string", Pattern: "first_name", Nullable: true},
			{Name: "last_name", Type: "string", Pattern: "last_name", Nullable: true},
			{Name: "email_corp", Type: "string", Pattern: "email", Nullable: true},
			{Name: "phone", Type: "string", Pattern: "phone", Nullable: true},
			{Name: "department", Type: "categorical", Nullable: true,
				Labels: []string{"Engineering", "Finance", "Sales", "Support", "People"}},
			{Name: "job_level", Type: "categorical",
				Labels:  []string{"L1", "L2", "L3", "L4", "L5"},
				Weights: map[string]float64{"L1": 30, "L2": 30, "L3": 20, "L4": 15, "L5": 5}},
			{Name: "salary", Type: "decimal", Min: num(30000), Max: num(250000), Nullable: true},
			{Name: "hire_date", Type: "date", WindowDays: 3650},
			{Name: "active", Type: "boolean"},
		},
		NaturalKey:     []string{"employee_id"},
		DuplicateProne: []string{"email_corp", "first_name", "last_name"},
	})
}

func registerDepartments() {
	schema.Register(schema.Definition{
		Domain: "hr_core",
		Table:  "departments",
		Label:  "Departments",
		Fields: []schema.FieldDef{
			{Name: "department_id", Type: "integer", Min: num(100), Max: num(999)},
			{Name: "name", Type: "categorical",
				Labels: []string{"Engineering", "Finance", "Sales", "Support", "People", "Legal"}},
			{Name: "cost_center", Type: "string", Pattern: "code", MinLength: 6, MaxLength: 6},
			{Name: "budget", Type: "decimal", Min: num(50000), Max: num(5000000), Decimals: places(0)},
			{Name: "city", Type: "string", Pattern: "city", Nullable: true},
		},
	})
}

func registerTimesheets() {
	schema.Register(schema.Definition{
		Domain: "hr_core",
		Table:  "timesheets",
		Label:  "Timesheets",
		Fields: []schema.FieldDef{
			ref("employee_id", "employees"),
			{Name: "work_date", Type: "date", WindowDays: 90},
			{Name: "hours", Type: "decimal", Min: num(0), Max: num(12), Decimals: places(1)},
			{Name: "project_code", Type: "string", Pattern: "code", MinLength: 5, MaxLength: 5, Nullable: true},
			{Name: "approved", Type: "boolean", Nullable: true},
		},
	})
}
