package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRegistrationStatus_LegalMoves(t *testing.T) {
	next, ok := NextRegistrationStatus(RegistrationReceived, ActionOrganizerAccept)
	assert.True(t, ok)
	assert.Equal(t, RegistrationWaiting, next)

	next, ok = NextRegistrationStatus(RegistrationReceived, ActionOrganizerReject)
	assert.True(t, ok)
	assert.Equal(t, RegistrationRejected, next)

	next, ok = NextRegistrationStatus(RegistrationWaiting, ActionConfirmPayment)
	assert.True(t, ok)
	assert.Equal(t, RegistrationAccepted, next)
}

func TestNextRegistrationStatus_IllegalMoves(t *testing.T) {
	cases := []struct {
		from   RegistrationStatus
		action Action
	}{
		{RegistrationWaiting, ActionOrganizerAccept},
		{RegistrationWaiting, ActionOrganizerReject},
		{RegistrationAccepted, ActionOrganizerAccept},
		{RegistrationAccepted, ActionConfirmPayment},
		{RegistrationRejected, ActionOrganizerAccept},
		{RegistrationRejected, ActionConfirmPayment},
		{RegistrationReceived, ActionConfirmPayment},
		{RegistrationReceived, ActionMerchantAccept},
	}
	for _, c := range cases {
		_, ok := NextRegistrationStatus(c.from, c.action)
		assert.False(t, ok, "expected %s + %s to be illegal", c.from, c.action)
	}
}

func TestNextInvitationStatus(t *testing.T) {
	next, ok := NextInvitationStatus(InvitationPending, ActionMerchantAccept)
	assert.True(t, ok)
	assert.Equal(t, InvitationAccepted, next)

	next, ok = NextInvitationStatus(InvitationPending, ActionMerchantReject)
	assert.True(t, ok)
	assert.Equal(t, InvitationRejected, next)

	_, ok = NextInvitationStatus(InvitationAccepted, ActionMerchantAccept)
	assert.False(t, ok)
	_, ok = NextInvitationStatus(InvitationRejected, ActionMerchantReject)
	assert.False(t, ok)
	_, ok = NextInvitationStatus(InvitationPending, ActionOrganizerAccept)
	assert.False(t, ok)
}
