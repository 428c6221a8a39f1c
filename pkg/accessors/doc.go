// Package accessors provides resource-accessor implementations of the
// deferred resolution contract for common infrastructure resources: TCP
// endpoints, HTTP services, local files, and remote hosts over SSH.
//
// Each accessor performs one bounded probe per Resolve call and maps its own
// failure causes to transient or permanent at this boundary. A condition
// that can self-heal (endpoint not yet listening, file not yet created,
// remote host still booting) is transient; one that never will (malformed
// address, unreadable key, permission denied) is permanent. The engine never
// second-guesses these decisions.
//
// Accessors hold no connection state between attempts: every probe opens and
// closes whatever it needs, so they are safe to share across concurrent
// ensure calls.
package accessors
