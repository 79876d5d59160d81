package domain

// Plan describes a purchasable subscription tier. Amounts are in the smallest
// currency unit.
type Plan struct {
	ID          string
	Name        string
	Amount      int64
	Period      string
	Description string
	Features    []string
}

// Plans is the fixed catalog of subscription tiers.
var Plans = []Plan{
	{
		ID:          "starter",
		Name:        "Starter",
		Amount:      99900,
		Period:      "month",
		Description: "Perfect for small teams getting started",
		Features: []string{
			"Up to 100 tickets/month",
			"Basic reporting",
			"Email support",
			"2 team members",
		},
	},
	{
		ID:          "professional",
		Name:        "Professional",
		Amount:      299900,
		Period:      "month",
		Description: "Ideal for growing businesses",
		Features: []string{
			"Up to 1000 tickets/month",
			"Advanced reporting & analytics",
			"Priority support",
			"10 team members",
			"SLA management",
		},
	},
	{
		ID:          "enterprise",
		Name:        "Enterprise",
		Amount:      599900,
		Period:      "month",
		Description: "For large organizations with complex needs",
		Features: []string{
			"Unlimited tickets",
			"Enterprise reporting",
			"24/7 dedicated support",
			"Unlimited team members",
			"SSO & advanced security",
		},
	},
}

// PlanByID looks up a plan in the catalog.
func PlanByID(id string) (Plan, bool) {
	for _, plan := range Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return Plan{}, false
}
