package models

// Parent represents a parent account, the owner of a document keyspace
type Parent struct {
	ID           string `db:"id" json:"id"`
	MobileNumber string `db:"mobile_number" json:"phone"`
	NationalID   string `db:"national_id" json:"nationalId"`
	FirstName    string `db:"first_name" json:"firstName"`
	LastName     string `db:"last_name" json:"lastName"`
	CreatedAt    int64  `db:"created_at" json:"createdAt"`
	UpdatedAt    int64  `db:"updated_at" json:"updatedAt"`
}

// Document is one keyed JSON value in a parent's keyspace
type Document struct {
	OwnerID       string `db:"owner_id" json:"ownerId"`
	Key           string `db:"doc_key" json:"key"`
	Value         string `db:"value" json:"value"`
	SchemaVersion int    `db:"schema_version" json:"schemaVersion"`
	CreatedAt     int64  `db:"created_at" json:"createdAt"`
	UpdatedAt     int64  `db:"updated_at" json:"updatedAt"`
}

// OTPCode is an issued one-time password awaiting verification
type OTPCode struct {
	MobileNumber string `db:"mobile_number"`
	CodeHash     string `db:"code_hash"`
	Attempts     int    `db:"attempts"`
	ExpiresAt    int64  `db:"expires_at"`
	CreatedAt    int64  `db:"created_at"`
}

// RefreshToken is the stored hash of a refresh token handed to a client
type RefreshToken struct {
	TokenHash string `db:"token_hash"`
	ParentID  string `db:"parent_id"`
	ExpiresAt int64  `db:"expires_at"`
	CreatedAt int64  `db:"created_at"`
}
