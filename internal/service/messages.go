package service

import (
	"fmt"

	"SafeSignal/internal/models"
)

// messageData feeds the per-channel templates. One instance per contact.
type messageData struct {
	ContactName   string
	UserName      string
	TriggerTime   string
	TriggerMethod string
	AlertID       string
	LocationURL   string
	MonitorURL    string
}

func templateData(alert *models.Alert, owner *models.User, contact *models.EmergencyContact, baseURL string) messageData {
	return messageData{
		ContactName:   contact.Name,
		UserName:      owner.DisplayName(),
		TriggerTime:   alert.TriggeredAt.Format("2006-01-02 15:04:05"),
		TriggerMethod: alert.TriggerMethod,
		AlertID:       alert.ID,
		LocationURL:   mapsURL(alert.InitialLatitude, alert.InitialLongitude),
		MonitorURL:    fmt.Sprintf("%s/alert/monitor/%s/", baseURL, alert.ID),
	}
}

func mapsURL(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "Location not available"
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", *lat, *lon)
}

func emailSubject(d messageData) string {
	return fmt.Sprintf("EMERGENCY ALERT: %s needs help", d.UserName)
}

func composeSMS(d messageData) string {
	return fmt.Sprintf(`EMERGENCY ALERT

%s has triggered an emergency alert!

Time: %s
Location: %s

Monitor live tracking: %s

This is an automated message from SafeSignal.`,
		d.UserName, d.TriggerTime, d.LocationURL, d.MonitorURL)
}

func composeEmail(d messageData) string {
	return fmt.Sprintf(`Dear %s,

This is an EMERGENCY ALERT from SafeSignal.

%s has triggered an emergency alert and you are listed as an emergency contact.

ALERT DETAILS:
- User: %s
- Trigger Time: %s
- Trigger Method: %s
- Alert ID: %s

LOCATION INFORMATION:
Current Location: %s

REAL-TIME TRACKING:
You can monitor the user's real-time location here:
%s

WHAT TO DO:
1. Try to contact %s immediately
2. If you cannot reach them, consider contacting local authorities
3. Use the tracking link above to monitor their location

This is an automated alert. Please respond immediately.

---
SafeSignal Emergency Response`,
		d.ContactName, d.UserName, d.UserName, d.TriggerTime, d.TriggerMethod,
		d.AlertID, d.LocationURL, d.MonitorURL, d.UserName)
}
