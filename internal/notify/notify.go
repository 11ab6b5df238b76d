// Package notify posts a native desktop toast when a batch export finishes
// or fails, the one place in the pipeline a long-running operation
// benefits from a notification outside the app window.
package notify

import (
	"fmt"

	toast "git.sr.ht/~jackmordaunt/go-toast/v2"
)

const appID = "CursedClipper"

// Notifier posts native toast notifications. The zero value is usable.
type Notifier struct {
	IconPath string
}

// New creates a Notifier using iconPath for the toast icon (may be empty).
func New(iconPath string) *Notifier {
	return &Notifier{IconPath: iconPath}
}

// ExportSucceeded posts a toast summarizing a completed batch export.
func (n *Notifier) ExportSucceeded(projectName string, clipCount int) error {
	body := fmt.Sprintf("%d clip(s) exported for \"%s\"", clipCount, projectName)
	return n.push("Export complete", body)
}

// ExportFailed posts a toast reporting a failed batch export.
func (n *Notifier) ExportFailed(projectName string, cause error) error {
	body := fmt.Sprintf("Export failed for \"%s\": %s", projectName, cause.Error())
	return n.push("Export failed", body)
}

func (n *Notifier) push(title, body string) error {
	notification := toast.Notification{
		AppID: appID,
		Title: title,
		Body:  body,
		Icon:  n.IconPath,
	}
	return notification.Push()
}
