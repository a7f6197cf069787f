// internal/domain/models/registration.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership types an admin may assign. An empty type means the
// registration has not been reviewed yet.
const (
	TypeMember          = "Member"
	TypeAssociateMember = "Associate Member"
)

// StatusPending is the only status the intake pipeline writes.
const StatusPending = "pending"

// Categories offered on the intake form.
var Categories = []string{
	"Student",
	"Resident",
	"Specialist",
	"Consultant",
	"Other",
}

// Types offered in the review editor. The empty entry is "Pending".
var Types = []string{"", TypeMember, TypeAssociateMember}

// Registration is one applicant's submission.
//
// Attachments order is significant: the editor deletes by position.
type Registration struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Surname    string `bson:"surname" json:"surname"`
	FirstName  string `bson:"firstname" json:"firstname"`
	MiddleName string `bson:"midname" json:"midname"`
	Email      string `bson:"email" json:"email"`
	Contact    string `bson:"contact" json:"contact"`
	WhatsApp   string `bson:"whatsapp" json:"whatsapp"`
	University string `bson:"university" json:"university"`
	Degree     string `bson:"degree" json:"degree"`
	Category   string `bson:"category" json:"category"`

	Type    string `bson:"type" json:"type"` // "" | Member | Associate Member
	Remarks string `bson:"remarks" json:"remarks"`
	Status  string `bson:"status" json:"status"`

	Attachments []Attachment `bson:"attachments" json:"attachments"`
	Signature   *Signature   `bson:"signature,omitempty" json:"signature,omitempty"`

	CreatedAt *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// FullName is "first mid surname" with the middle name omitted when blank.
func (r Registration) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.FirstName, r.MiddleName, r.Surname} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsPending reports whether no membership type has been assigned.
func (r Registration) IsPending() bool {
	return r.Type == ""
}

// TypeLabel is the display form of Type.
func (r Registration) TypeLabel() string {
	if r.Type == "" {
		return "Pending"
	}
	return r.Type
}

// Attachment is one uploaded supporting file.
type Attachment struct {
	Name     string `bson:"name" json:"name"`
	MimeType string `bson:"type" json:"type"`
	Size     int64  `bson:"size" json:"size"`
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
	Format   string `bson:"format,omitempty" json:"format,omitempty"`
}

// Signature is the uploaded signature image.
type Signature struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
	Format   string `bson:"format,omitempty" json:"format,omitempty"`
	Size     int64  `bson:"size" json:"size"`
}
