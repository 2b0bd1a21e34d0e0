// Package model defines the data structures used throughout the application.
package model

// User represents a person account.
//
// ID is assigned by the store on insert and never reassigned afterwards.
// Age is a pointer because the column is nullable: an absent age is
// serialized as null, not 0.
//
// Password is stored and returned as-is. Nothing in this service checks it.
type User struct {
	ID        int64  `json:"id"         db:"id"`
	Role      string `json:"role"       db:"role"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name"  db:"last_name"`
	Email     string `json:"email"      db:"email"`
	Password  string `json:"password"   db:"password"`
	Age       *int   `json:"age"        db:"age"`
}

// UserInput is the payload accepted by create and replace.
//
// WHY POINTERS FOR REQUIRED STRINGS?
// "required" must mean "present in the JSON", not "non-empty". An empty
// string is a valid role or email here. A nil pointer after decoding means
// the key was missing (or null), which the validator rejects.
//
// ID is accepted so clients can round-trip a User body, but it is ignored.
// ID and Age are FlexInt so that "36" and 36.0 decode as 36.
type UserInput struct {
	ID        *FlexInt `json:"id"`
	Role      *string  `json:"role"       validate:"required"`
	FirstName *string  `json:"first_name" validate:"required"`
	LastName  *string  `json:"last_name"  validate:"required"`
	Email     *string  `json:"email"      validate:"required"`
	Password  *string  `json:"password"   validate:"required"`
	Age       *FlexInt `json:"age"`
}

// ToUser builds the record a replace or create writes to the store.
// Every field comes from the input; optional fields left out become their
// zero value (Age → nil). Callers must validate first.
func (in UserInput) ToUser() User {
	return User{
		Role:      deref(in.Role),
		FirstName: deref(in.FirstName),
		LastName:  deref(in.LastName),
		Email:     deref(in.Email),
		Password:  deref(in.Password),
		Age:       in.Age.Int(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
