package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"ComplaintDesk/internal/complaint"
)

const dateLayout = "January 2, 2006, 03:04 PM"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// message is one rendered email + SMS pair.
type message struct {
	Subject string
	HTML    string
	SMS     string
}

const footerTmpl = `<p style="margin-top: 20px; padding: 15px; background: #f0f0f0; border-radius: 5px;">` +
	`<strong>Note:</strong> This is a notification only. Please check your dashboard to %s.</p>`

func row(label, value string) string {
	return fmt.Sprintf("<p><strong>%s:</strong> %s</p>\n", label, html.EscapeString(value))
}

func adminCreatedText(c *complaint.Complaint) string {
	return fmt.Sprintf("New complaint \"%s\" has been submitted from %s - %s", c.Title, c.School, c.Department)
}

func staffCreatedText(c *complaint.Complaint) string {
	return fmt.Sprintf("New complaint \"%s\" from %s - %s submitted on %s. Category: %s",
		c.Title, c.School, c.Department, formatDate(c.CreatedAt), c.Category)
}

func staffCreatedMessage(c *complaint.Complaint) message {
	var b strings.Builder
	b.WriteString("<h2>Notification: New Complaint</h2>\n")
	b.WriteString("<p>A new complaint has been submitted in your department.</p>\n")
	b.WriteString(row("Title", c.Title))
	b.WriteString(row("School", c.School))
	b.WriteString(row("Department", c.Department))
	b.WriteString(row("Category", string(c.Category)))
	b.WriteString(row("Priority", string(c.Priority)))
	b.WriteString(row("Submitted on", formatDate(c.CreatedAt)))
	fmt.Fprintf(&b, footerTmpl, "view and manage this complaint")

	return message{
		Subject: "Notification: New Complaint Received",
		HTML:    b.String(),
		SMS: fmt.Sprintf("Notification: New complaint \"%s\" from %s - %s. Check your dashboard for details.",
			c.Title, c.School, c.Department),
	}
}

func ownerCreatedMessage(c *complaint.Complaint) message {
	var b strings.Builder
	b.WriteString("<h2>Notification: Complaint Submitted Successfully</h2>\n")
	b.WriteString("<p>Your complaint has been received and will be reviewed by the faculty.</p>\n")
	b.WriteString(row("Title", c.Title))
	b.WriteString(row("Category", string(c.Category)))
	b.WriteString(row("Priority", string(c.Priority)))
	b.WriteString(row("Submitted on", formatDate(c.CreatedAt)))
	b.WriteString(row("Status", "Pending"))
	fmt.Fprintf(&b, footerTmpl, "track the status of your complaint")

	return message{
		Subject: "Notification: Complaint Submitted",
		HTML:    b.String(),
		SMS:     fmt.Sprintf("Notification: Your complaint \"%s\" has been submitted. Check your dashboard for status updates.", c.Title),
	}
}

// statusText is the in-app copy for a status change.
func statusText(c *complaint.Complaint, at time.Time) string {
	if c.Status.IsResolution() {
		text := fmt.Sprintf("Your complaint \"%s\" has been resolved on %s.", c.Title, formatDate(at))
		if c.AdminNotes != "" {
			text += " Admin Note: " + c.AdminNotes
		}
		return text
	}
	return fmt.Sprintf("Your complaint \"%s\" status has been updated to %s on %s.", c.Title, c.Status, formatDate(at))
}

func statusMessage(c *complaint.Complaint, at time.Time) message {
	var b strings.Builder
	if c.Status.IsResolution() {
		b.WriteString("<h2>Notification: Your Complaint Has Been Resolved</h2>\n")
		b.WriteString("<p>Your complaint has been successfully resolved.</p>\n")
		b.WriteString(row("Title", c.Title))
		b.WriteString(row("Status", string(c.Status)))
		b.WriteString(row("Resolved on", formatDate(at)))
	} else {
		b.WriteString("<h2>Notification: Complaint Status Updated</h2>\n")
		b.WriteString("<p>Your complaint status has been updated.</p>\n")
		b.WriteString(row("Title", c.Title))
		b.WriteString(row("New Status", string(c.Status)))
		b.WriteString(row("Updated on", formatDate(at)))
	}
	if c.AdminNotes != "" {
		b.WriteString(row("Admin Note", c.AdminNotes))
	}

	if c.Status.IsResolution() {
		fmt.Fprintf(&b, footerTmpl, "view full details and provide feedback")
		return message{
			Subject: "Notification: Complaint Resolved",
			HTML:    b.String(),
			SMS:     fmt.Sprintf("Notification: Your complaint \"%s\" has been resolved. Check your dashboard for details and to provide feedback.", c.Title),
		}
	}
	fmt.Fprintf(&b, footerTmpl, "view full details and updates")
	return message{
		Subject: "Notification: Complaint Status Updated",
		HTML:    b.String(),
		SMS:     fmt.Sprintf("Notification: Your complaint \"%s\" status updated to %s. Check your dashboard for details.", c.Title, c.Status),
	}
}

func assignedText(c *complaint.Complaint) string {
	return fmt.Sprintf("Your complaint \"%s\" has been assigned", c.Title)
}
