// Package model defines the entities of a principal's ledger and the
// GlobalState aggregate that the sync engine replicates as a whole.
package model

// TransactionType discriminates the sign of a transaction's value.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// GroupType marks how a transaction series was generated.
type GroupType string

const (
	GroupInstallment GroupType = "INSTALLMENT"
	GroupRecurring   GroupType = "RECURRING"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "CHECKING"
	AccountInvestment AccountType = "INVESTMENT"
	AccountCash       AccountType = "CASH"
	AccountCreditCard AccountType = "CREDIT_CARD"
)

// CategoryGroup buckets categories for budgeting views.
type CategoryGroup string

const (
	CategoryFixed      CategoryGroup = "FIXED"
	CategoryVariable   CategoryGroup = "VARIABLE"
	CategoryInvest     CategoryGroup = "INVESTMENT"
	CategoryIncomeType CategoryGroup = "INCOME"
)

// Account holds a materialized balance: every eligible active transaction
// referencing it has already been folded in by the mutation that touched it.
type Account struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Owner       string      `json:"owner,omitempty"`
	Balance     float64     `json:"balance"`
	CreditLimit float64     `json:"creditLimit,omitempty"`
	Color       string      `json:"color,omitempty"`
	DeletedAt   int64       `json:"deletedAt,omitempty"`
}

// Transaction references exactly one account by id. Value is always >= 0;
// the sign applied to the account balance is implied by Type.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Description string          `json:"description"`
	Value       float64         `json:"value"`
	Date        string          `json:"date"` // ISO date, local calendar day
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"categoryId,omitempty"`
	GroupID     string          `json:"groupId,omitempty"`
	GroupIndex  int             `json:"groupIndex,omitempty"`
	GroupTotal  int             `json:"groupTotal,omitempty"`
	GroupType   GroupType       `json:"groupType,omitempty"`
	DeletedAt   int64           `json:"deletedAt,omitempty"`
}

type Category struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Color     string        `json:"color,omitempty"`
	Icon      string        `json:"icon,omitempty"`
	Group     CategoryGroup `json:"group,omitempty"`
	DeletedAt int64         `json:"deletedAt,omitempty"`
}

type Goal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetDate    string  `json:"targetDate,omitempty"`
	Color         string  `json:"color,omitempty"`
	DeletedAt     int64   `json:"deletedAt,omitempty"`
}

type InvestmentAsset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	AssetType     string  `json:"assetType"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchasePrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	DateAdded     string  `json:"dateAdded,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	DeletedAt     int64   `json:"deletedAt,omitempty"`
}

type PatrimonyItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Value     float64 `json:"value"`
	Notes     string  `json:"notes,omitempty"`
	DeletedAt int64   `json:"deletedAt,omitempty"`
}

type CategoryBudget struct {
	ID           string  `json:"id"`
	CategoryID   string  `json:"categoryId"`
	BudgetAmount float64 `json:"budgetAmount"`
	Spent        float64 `json:"spent"`
	Month        string  `json:"month,omitempty"` // YYYY-MM
	DeletedAt    int64   `json:"deletedAt,omitempty"`
}

type Partner struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Status    string  `json:"status,omitempty"`
	TotalAUM  float64 `json:"totalAUM,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	DeletedAt int64   `json:"deletedAt,omitempty"`
}

// Asset is an acquisition target being evaluated (buy vs rent), distinct from
// InvestmentAsset which is a market holding.
type Asset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	PurchasePrice float64 `json:"purchasePrice"`
	Notes         string  `json:"notes,omitempty"`
	DeletedAt     int64   `json:"deletedAt,omitempty"`
}

// DashboardWidget is a slot in the user's configurable dashboard layout.
type DashboardWidget struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

type UserProfile struct {
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Document        string            `json:"cpf,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	HasChildren     bool              `json:"hasChildren,omitempty"`
	ChildrenNames   string            `json:"childrenNames,omitempty"`
	HasSpouse       bool              `json:"hasSpouse,omitempty"`
	SpouseName      string            `json:"spouseName,omitempty"`
	SpouseEmail     string            `json:"spouseEmail,omitempty"`
	DashboardLayout []DashboardWidget `json:"dashboardLayout,omitempty"`
}

// GlobalState is the whole-aggregate replication unit. LastUpdated is the
// epoch-ms watermark bumped on every accepted local mutation; it is the sole
// conflict-resolution signal between replicas.
type GlobalState struct {
	Accounts     []Account         `json:"accounts"`
	Transactions []Transaction     `json:"transactions"`
	Categories   []Category        `json:"categories"`
	Goals        []Goal            `json:"goals"`
	Investments  []InvestmentAsset `json:"investments"`
	Patrimony    []PatrimonyItem   `json:"patrimony"`
	Budgets      []CategoryBudget  `json:"budgets"`
	Partners     []Partner         `json:"partners"`
	Assets       []Asset           `json:"assets"`
	UserProfile  UserProfile       `json:"userProfile"`
	LastUpdated  int64             `json:"lastUpdated"`
}

// Collection names as reported in change notifications and audit records.
const (
	ColAccounts     = "accounts"
	ColTransactions = "transactions"
	ColCategories   = "categories"
	ColGoals        = "goals"
	ColInvestments  = "investments"
	ColPatrimony    = "patrimony"
	ColBudgets      = "budgets"
	ColPartners     = "partners"
	ColAssets       = "assets"
	ColUserProfile  = "userProfile"
)

// DefaultDashboardLayout mirrors the seed layout shipped to new principals.
var DefaultDashboardLayout = []DashboardWidget{
	{ID: "upcoming_bills", Visible: true},
	{ID: "balance_card", Visible: true},
	{ID: "compass", Visible: true},
	{ID: "spending_chart", Visible: true},
	{ID: "recent_transactions", Visible: true},
}

// DefaultState seeds a fresh principal's ledger. LastUpdated stays 0 so any
// remote snapshot wins the first merge and seed data never clobbers history.
func DefaultState() GlobalState {
	s := GlobalState{
		Accounts: []Account{
			{ID: "acc-checking", Name: "Conta Corrente", Type: AccountChecking, Owner: "ME"},
			{ID: "acc-cash", Name: "Carteira", Type: AccountCash, Owner: "ME"},
		},
		Categories: []Category{
			{ID: "cat-housing", Name: "Moradia", Group: CategoryFixed, Color: "#8B5CF6"},
			{ID: "cat-food", Name: "Alimentação", Group: CategoryVariable, Color: "#F59E0B"},
			{ID: "cat-transport", Name: "Transporte", Group: CategoryVariable, Color: "#3B82F6"},
			{ID: "cat-invest", Name: "Investimentos", Group: CategoryInvest, Color: "#10B981"},
			{ID: "cat-salary", Name: "Salário", Group: CategoryIncomeType, Color: "#22C55E"},
		},
		UserProfile: UserProfile{DashboardLayout: DefaultDashboardLayout},
	}
	s.Normalize()
	return s
}

// Normalize coerces nil collections to empty slices and restores the default
// dashboard layout when absent. A malformed remote push therefore degrades to
// empty collections instead of poisoning downstream readers.
func (s *GlobalState) Normalize() {
	if s.Accounts == nil {
		s.Accounts = []Account{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Goals == nil {
		s.Goals = []Goal{}
	}
	if s.Investments == nil {
		s.Investments = []InvestmentAsset{}
	}
	if s.Patrimony == nil {
		s.Patrimony = []PatrimonyItem{}
	}
	if s.Budgets == nil {
		s.Budgets = []CategoryBudget{}
	}
	if s.Partners == nil {
		s.Partners = []Partner{}
	}
	if s.Assets == nil {
		s.Assets = []Asset{}
	}
	if len(s.UserProfile.DashboardLayout) == 0 {
		s.UserProfile.DashboardLayout = DefaultDashboardLayout
	}
}

// Clone deep-copies the aggregate so mutators can work copy-on-write.
func (s GlobalState) Clone() GlobalState {
	out := s
	out.Accounts = append([]Account(nil), s.Accounts...)
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Categories = append([]Category(nil), s.Categories...)
	out.Goals = append([]Goal(nil), s.Goals...)
	out.Investments = append([]InvestmentAsset(nil), s.Investments...)
	out.Patrimony = append([]PatrimonyItem(nil), s.Patrimony...)
	out.Budgets = append([]CategoryBudget(nil), s.Budgets...)
	out.Partners = append([]Partner(nil), s.Partners...)
	out.Assets = append([]Asset(nil), s.Assets...)
	out.UserProfile.DashboardLayout = append([]DashboardWidget(nil), s.UserProfile.DashboardLayout...)
	return out
}
