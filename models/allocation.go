package models

// Allocation records tie an outlet to an event through one of two channels:
// a merchant-initiated registration or an organizer-initiated invitation.
// Status moves only along the transition tables below; services never flip
// statuses outside of them.

type RegistrationStatus string

const (
	RegistrationReceived RegistrationStatus = "received"
	RegistrationWaiting  RegistrationStatus = "waiting"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationRejected RegistrationStatus = "rejected"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Decision is an actor's verdict on a pending allocation record.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Action names the operations that may move an allocation record.
type Action string

const (
	ActionOrganizerAccept Action = "organizer_accept"
	ActionOrganizerReject Action = "organizer_reject"
	ActionConfirmPayment  Action = "confirm_payment"
	ActionMerchantAccept  Action = "merchant_accept"
	ActionMerchantReject  Action = "merchant_reject"
)

type registrationTransition struct {
	From   RegistrationStatus
	Action Action
}

var registrationTransitions = map[registrationTransition]RegistrationStatus{
	{RegistrationReceived, ActionOrganizerAccept}: RegistrationWaiting,
	{RegistrationReceived, ActionOrganizerReject}: RegistrationRejected,
	{RegistrationWaiting, ActionConfirmPayment}:   RegistrationAccepted,
}

// NextRegistrationStatus resolves the transition table for registrations.
// ok is false when the action is illegal from the current status.
func NextRegistrationStatus(from RegistrationStatus, action Action) (RegistrationStatus, bool) {
	next, ok := registrationTransitions[registrationTransition{from, action}]
	return next, ok
}

type invitationTransition struct {
	From   InvitationStatus
	Action Action
}

var invitationTransitions = map[invitationTransition]InvitationStatus{
	{InvitationPending, ActionMerchantAccept}: InvitationAccepted,
	{InvitationPending, ActionMerchantReject}: InvitationRejected,
}

// NextInvitationStatus resolves the transition table for invitations.
func NextInvitationStatus(from InvitationStatus, action Action) (InvitationStatus, bool) {
	next, ok := invitationTransitions[invitationTransition{from, action}]
	return next, ok
}

// EventRegistration is a merchant-initiated participation request for one
// outlet against one published event. At most one row may ever exist per
// (event, outlet) pair, whatever its status.
type EventRegistration struct {
	ID          string             `db:"id" json:"id"`
	EventID     string             `db:"event_id" json:"eventId"`
	OrganizerID string             `db:"organizer_id" json:"organizerId"`
	MerchantID  string             `db:"merchant_id" json:"merchantId"`
	OutletID    string             `db:"outlet_id" json:"outletId"`
	Status      RegistrationStatus `db:"status" json:"status"`
	// Score is the outlet's tier snapshotted when the registration was made.
	Score   ScoreTier `db:"score" json:"score"`
	Created string    `db:"created" json:"created"`
}

// EventInvitation is an organizer-initiated offer to one outlet. Same
// per-(event, outlet) uniqueness as registrations.
type EventInvitation struct {
	ID          string           `db:"id" json:"id"`
	EventID     string           `db:"event_id" json:"eventId"`
	OrganizerID string           `db:"organizer_id" json:"organizerId"`
	MerchantID  string           `db:"merchant_id" json:"merchantId"`
	OutletID    string           `db:"outlet_id" json:"outletId"`
	Status      InvitationStatus `db:"status" json:"status"`
	Created     string           `db:"created" json:"created"`
}

// RegistrationView is a registration joined with its event and outlet for
// listing screens.
type RegistrationView struct {
	EventRegistration
	EventName  string `db:"event_name" json:"eventName"`
	EventDate  string `db:"event_date" json:"eventDate"`
	OutletName string `db:"outlet_name" json:"outletName"`
}

// InvitationView is an invitation joined with its event and outlet.
type InvitationView struct {
	EventInvitation
	EventName  string `db:"event_name" json:"eventName"`
	EventDate  string `db:"event_date" json:"eventDate"`
	OutletName string `db:"outlet_name" json:"outletName"`
}

// RegistrationListFilter narrows a merchant's registration listing.
type RegistrationListFilter struct {
	Status    RegistrationStatus // empty means all
	DateOrder string             // "asc" or "desc", default asc
}
