package pricing

// Share splits a syndicate's total stake across its participants.
// The remainder (total mod participants) is carried by the organizer.
type Share struct {
	Participants   int `json:"participants"`
	TotalCents     int `json:"total_cents"`
	PerPersonCents int `json:"per_person_cents"`
	RemainderCents int `json:"remainder_cents"`
}

// Split divides totalCents evenly; with n <= 0 participants it errors.
func Split(totalCents, n int) (Share, error) {
	if n <= 0 {
		return Share{}, ErrNoParticipants
	}
	if totalCents < 0 {
		return Share{}, ErrNegativeAmounts
	}
	return Share{
		Participants:   n,
		TotalCents:     totalCents,
		PerPersonCents: totalCents / n,
		RemainderCents: totalCents % n,
	}, nil
}
