// Package notify sends native desktop notifications for price alerts.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/tapeview/tapeview/internal/csync"
)

// Notifier sends native notifications, at most once per alert key so a
// threshold crossing does not spam the desk.
type Notifier struct {
	enabled bool
	fired   *csync.Map[string, struct{}]
}

// New creates a new Notifier instance.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		fired:   csync.NewMap[string, struct{}](),
	}
}

// Alert sends a notification for key unless one already fired for it.
// It reports whether the notification was dispatched; delivery itself is
// asynchronous and best effort.
func (n *Notifier) Alert(ctx context.Context, key, title, message string) bool {
	if !n.enabled {
		slog.Debug("Notifications disabled, skipping alert", "key", key)
		return false
	}
	if _, dup := n.fired.Get(key); dup {
		return false
	}
	n.fired.Set(key, struct{}{})

	slog.Debug("Sending notification", "key", key, "title", title, "message", message)
	go func() {
		if err := n.sendNotification(ctx, title, message); err != nil {
			slog.Warn("Failed to send notification", "error", err, "title", title, "message", message)
		} else {
			slog.Debug("Notification sent successfully", "title", title)
		}
	}()
	return true
}

// Reset rearms every alert key, for settings reloads.
func (n *Notifier) Reset() {
	n.fired.Reset()
}

// sendNotification sends a platform-specific notification
func (n *Notifier) sendNotification(ctx context.Context, title, message string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch runtime.GOOS {
	case "darwin":
		return n.sendMacOSNotification(ctx, title, message)
	case "linux":
		return n.sendLinuxNotification(ctx, title, message)
	case "windows":
		return n.sendWindowsNotification(ctx, title, message)
	default:
		return fmt.Errorf("notifications not supported on %s", runtime.GOOS)
	}
}

// sendMacOSNotification sends a notification on macOS using osascript
func (n *Notifier) sendMacOSNotification(ctx context.Context, title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s" sound name "Glass"`, message, title)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript failed: %w, output: %s", err, string(output))
	}
	return nil
}

// sendLinuxNotification sends a notification on Linux using notify-send
func (n *Notifier) sendLinuxNotification(ctx context.Context, title, message string) error {
	cmd := exec.CommandContext(ctx, "notify-send", "--urgency=critical", title, message)
	return cmd.Run()
}

// sendWindowsNotification sends a notification on Windows using multiple methods
func (n *Notifier) sendWindowsNotification(ctx context.Context, title, message string) error {
	// Try PowerShell toast notification first (Windows 10+)
	if err := n.sendWindowsToastNotification(ctx, title, message); err == nil {
		return nil
	} else {
		slog.Debug("Windows toast notification failed, trying fallback", "error", err)
	}

	// Fallback to msg command (works on all Windows versions)
	return n.sendWindowsMsgNotification(ctx, title, message)
}

// sendWindowsToastNotification sends a toast notification using PowerShell (Windows 10+)
func (n *Notifier) sendWindowsToastNotification(ctx context.Context, title, message string) error {
	script := fmt.Sprintf(`
		try {
			[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
			[Windows.UI.Notifications.ToastNotification, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
			[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null

			$template = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@

			$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
			$xml.LoadXml($template)
			$toast = New-Object Windows.UI.Notifications.ToastNotification $xml
			[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("Tapeview").Show($toast)
		} catch {
			exit 1
		}
	`, title, message)

	cmd := exec.CommandContext(ctx, "powershell", "-WindowStyle", "Hidden", "-Command", script)
	return cmd.Run()
}

// sendWindowsMsgNotification sends a notification using msg command (fallback)
func (n *Notifier) sendWindowsMsgNotification(ctx context.Context, title, message string) error {
	fullMessage := fmt.Sprintf("%s: %s", title, message)
	cmd := exec.CommandContext(ctx, "msg", "*", fullMessage)
	return cmd.Run()
}
