package domain

// Record mirrors one row in the persistent `domains` table.  A record is
// keyed by its normalized domain name (no port, no `www.`, lowercase) and
// can be switched off without deletion via IsActive.  Inactive records are
// invisible to the public resolver but still listed in the back office.
type Record struct {
	ID          int64  `db:"id" json:"id"`
	Domain      string `db:"domain" json:"domain"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	ThemeColor  string `db:"theme_color" json:"theme_color"`
	Intro       string `db:"domain_intro" json:"domain_intro"`
	Price       string `db:"domain_price" json:"domain_price"`
	IsActive    bool   `db:"is_active" json:"is_active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at"`
}

// DefaultThemeColor is applied when an admin submits a record without one.
const DefaultThemeColor = "#0065F3"
