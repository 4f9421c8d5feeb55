package models

type ScoreTier string

const (
	ScoreHigh   ScoreTier = "high"
	ScoreMedium ScoreTier = "medium"
	ScoreLow    ScoreTier = "low"
)

// Outlet belongs to the external directory. The platform reads it to gate
// allocation and writes only the event_open eligibility flag.
type Outlet struct {
	ID         string    `db:"id" json:"id"`
	MerchantID string    `db:"merchant_id" json:"merchantId"`
	Name       string    `db:"name" json:"name"`
	EventOpen  bool      `db:"event_open" json:"eventOpen"`
	Score      ScoreTier `db:"score" json:"score"`
}

type Merchant struct {
	ID    string    `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Score ScoreTier `db:"score" json:"score"`
}

type Organizer struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Pic      string `db:"pic" json:"pic"`
	PicPhone string `db:"pic_phone" json:"picPhone"`
}
