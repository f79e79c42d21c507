// Package notify sends desktop notifications for session outcomes over
// the org.freedesktop.Notifications D-Bus interface. Notification
// failures are logged and never affect the session.
package notify

import (
	"github.com/godbus/dbus/v5"

	"github.com/nkurtalj/openvpn-manager/common"
)

const (
	notifyObject    = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyMethod    = "org.freedesktop.Notifications.Notify"
	expireMillis    = 5000
	criticalUrgency = byte(2)
	normalUrgency   = byte(1)
)

// send delivers one notification on the session bus.
func send(title, message, icon string, urgency byte) {
	conn, err := dbus.SessionBus()
	if err != nil {
		common.LogDebug("No session bus for notifications: %v", err)
		return
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency),
	}

	obj := conn.Object(notifyObject, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyMethod, 0,
		common.AppName, // app name
		uint32(0),      // replaces id
		icon,
		title,
		message,
		[]string{}, // actions
		hints,
		int32(expireMillis),
	)
	if call.Err != nil {
		common.LogDebug("Notification failed: %v", call.Err)
	}
}

// Connected announces an established session.
func Connected(configName string) {
	send("VPN Connected", "Connected via "+configName, "network-vpn", normalUrgency)
}

// Failed announces a failed connection attempt.
func Failed(configName string) {
	send("VPN Connection Failed", configName+" did not come up", "dialog-error", criticalUrgency)
}

// Stopped announces a terminated session.
func Stopped() {
	send("VPN Stopped", "OpenVPN client terminated", "network-vpn-disconnected", normalUrgency)
}
