package models

// Category is one label of the closed, seeded category set.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// SavingsCategory is reserved for goal contributions.
const SavingsCategory = "Savings"

// DefaultCategories are inserted by the migration when missing.
var DefaultCategories = []string{
	"Salary",
	"Bonus",
	"Investment",
	"Food",
	"Transport",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Education",
	SavingsCategory,
	"Other",
}

// Method is a money-management method shown as a recommendation.
type Method struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// PayYourselfFirst is recommended when a period ends with a surplus.
const PayYourselfFirst = "Pay Yourself First"

var DefaultMethods = []Method{
	{Name: PayYourselfFirst, Description: "Move a fixed share of every income into savings before spending anything else."},
	{Name: "50/30/20", Description: "Split income into 50% needs, 30% wants and 20% savings or debt repayment."},
	{Name: "Envelope System", Description: "Give each spending category a fixed budget and stop when its envelope is empty."},
	{Name: "Zero-Based Budgeting", Description: "Assign every unit of income a job until income minus allocations is zero."},
}
