package redis

import "fmt"

const ns = "wedgo:v1"

// KeyInvitation caches the owner-facing detail of one invitation.
func KeyInvitation(id string) string {
	return fmt.Sprintf("%s:inv:%s", ns, id)
}

// KeyPublic caches the invitation served on the public page, looked up by name.
func KeyPublic(name string) string {
	return fmt.Sprintf("%s:public:%s", ns, name)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemPayment(invitationID, idemKey string) string {
	return fmt.Sprintf("%s:idem:payment:%s:%s", ns, invitationID, idemKey)
}

func ChannelInvitationsChanged() string {
	return ns + ":invitations:changed"
}
