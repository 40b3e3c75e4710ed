package core

import "strings"

// DefaultCategories is the built-in category menu offered before any user additions.
var DefaultCategories = []string{
	"Mortgage", "Property taxes", "Natural Gas", "Electricity", "Water", "Pet food", "Vet",
	"Groceries", "Coffee", "Cell phone", "Home maintenance", "Home insurance", "Car repair",
	"Auto insurance", "Fuel", "Gifts", "Internet", "Clothing", "Dining out / takeout",
	"Online Subscriptions", "Lawn care / landscaping", "Medical / dental expenses",
	"Travel / vacations", "Savings", "Entertainment", "Hobbies", "Charitable donations",
	"Other/Miscellaneous", "Haircuts / personal grooming", "Gym membership or fitness classes",
	"Health insurance premiums", "Life insurance", "Childcare or school tuition",
	"School supplies / kids’ activities", "House cleaning service", "HOA fees", "Parking / tolls",
	"Loan payments", "Business expenses", "Postage / shipping", "Home security / alarm system",
	"Banking fees", "Legal / accounting services",
}

// CategorySet is an insertion-ordered set of category names.
type CategorySet struct {
	names []string
	seen  map[string]struct{}
}

func NewCategorySet(groups ...[]string) *CategorySet {
	s := &CategorySet{seen: map[string]struct{}{}}
	for _, g := range groups {
		for _, name := range g {
			s.Add(name)
		}
	}
	return s
}

// Add inserts name and reports whether it was new. Blank names are ignored.
func (s *CategorySet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

func (s *CategorySet) Contains(name string) bool {
	_, ok := s.seen[strings.TrimSpace(name)]
	return ok
}

func (s *CategorySet) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *CategorySet) Len() int { return len(s.names) }
