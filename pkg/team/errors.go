package team

import "errors"

var (
	ErrMemberNotFound      = errors.New("team member not found")
	ErrMemberInactive      = errors.New("team member is inactive")
	ErrMemberAlreadyExists = errors.New("user is already a team member")
	ErrOwnerNotMember      = errors.New("account owner cannot join own team")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvitationExpired   = errors.New("invitation expired")
	ErrInvitationAccepted  = errors.New("invitation already accepted")
	ErrInvitationExists    = errors.New("pending invitation already exists for this email")
	ErrTeamLimitReached    = errors.New("team member limit reached")
	ErrRemovalHookFailed   = errors.New("team member removal hook failed")
)
