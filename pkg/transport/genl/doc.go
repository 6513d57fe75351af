// Package genl carries TWT vendor commands over generic netlink.
//
// Conn implements interaction.Transport on an nl80211 socket: Send wraps
// an encoded attribute buffer in an NL80211_CMD_VENDOR message and
// Receive returns the replies one at a time. Events listens on the
// nl80211 "vendor" multicast group for asynchronous vendor events.
package genl
