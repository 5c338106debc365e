package domain

type Recipient struct {
	Name  string
	Email string
}
