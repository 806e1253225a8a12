package adoption

import (
	"net/mail"
	"strings"
)

// Application is the adoption request forwarded to the listing API.
type Application struct {
	Pet            PetRef        `json:"pet"`
	PersonalInfo   PersonalInfo  `json:"personalInfo"`
	Experience     Experience    `json:"experience"`
	VisitSchedule  VisitSchedule `json:"visitSchedule"`
	AdoptionReason string        `json:"adoptionReason"`
}

type PetRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`
	Shelter string `json:"shelter"`
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type Experience struct {
	Level            string `json:"level"`
	Details          string `json:"details"`
	OtherPets        string `json:"otherPets"`
	OtherPetsDetails string `json:"otherPetsDetails"`
}

type VisitSchedule struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ValidationError reports the first missing or malformed field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the fields the listing API requires.
func (a *Application) Validate() error {
	required := []struct {
		value, message string
	}{
		{a.Pet.ID, "Pet is required"},
		{a.Pet.Name, "Pet name is required"},
		{a.PersonalInfo.FullName, "Full name is required"},
		{a.PersonalInfo.Email, "Email is required"},
		{a.PersonalInfo.Phone, "Phone number is required"},
		{a.VisitSchedule.Date, "Visit date is required"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return &ValidationError{Message: field.message}
		}
	}
	if _, err := mail.ParseAddress(a.PersonalInfo.Email); err != nil {
		return &ValidationError{Message: "Please provide a valid email"}
	}
	return nil
}
