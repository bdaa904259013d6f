package notif

import (
	"fmt"
	"regexp"
	"strconv"

	"nirala/internal/common"
)

const (
	fallbackTitle = "New notification"
	fallbackBody  = "You have a new notification"
	unknownActor  = "Someone"
)

// Message is what a notification shows.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ActionURL string `json:"actionUrl"`
	Icon      string `json:"icon"`
}

type msgTemplate struct {
	title, body, actionURL, icon string
}

var templates = map[common.NotificationType]msgTemplate{
	common.MessageReceived: {"{actorName} sent you a message", "{preview}", "/messages/{conversationId}", "message"},
	common.ForumReply:      {"{actorName} replied to your post", "{excerpt}", "/forum/{threadId}", "forum"},
	common.ForumMention:    {"{actorName} mentioned you", "{excerpt}", "/forum/{threadId}", "at-sign"},

	common.MarketplaceOfferReceived: {"New offer on {itemTitle}", "{actorName} offered ₹{offerAmount}", "/marketplace/{itemId}", "tag"},
	common.MarketplaceOfferAccepted: {"Offer accepted for {itemTitle}", "{actorName} accepted your offer of ₹{offerAmount}", "/marketplace/{itemId}", "check-circle"},
	common.MarketplaceItemSold:      {"{itemTitle} was sold", "Your listing sold for ₹{price}", "/marketplace/{itemId}", "shopping-bag"},
	common.SkillSwapRequest:         {"New skill swap request", "{actorName} wants to swap {skillOffered} for {skillWanted}", "/skill-swap/{requestId}", "repeat"},
	common.SkillSwapSessionBooked:   {"Skill swap session booked", "{actorName} booked a session on {sessionDate}", "/skill-swap/{requestId}", "calendar"},

	common.JobApplicationReceived: {"New application for {jobTitle}", "{actorName} applied for {jobTitle}", "/jobs/{jobId}/applications", "briefcase"},
	common.JobApplicationStatus:   {"Application update: {jobTitle}", "Your application is now {status}", "/jobs/{jobId}", "briefcase"},
	common.JobPosted:              {"New job: {jobTitle}", "{company} is hiring", "/jobs/{jobId}", "briefcase"},

	common.IdeaUpvoted:        {"{actorName} upvoted your idea", "{ideaTitle}", "/ideas/{ideaId}", "thumbs-up"},
	common.IdeaCommented:      {"{actorName} commented on your idea", "{ideaTitle}", "/ideas/{ideaId}", "message-circle"},
	common.LostItemMatch:      {"Possible match for your lost item", "{itemName} was reported found near {location}", "/lost-found/{itemId}", "search"},
	common.FoundItemClaimed:   {"{actorName} claimed an item you found", "{itemName}", "/lost-found/{itemId}", "package"},
	common.GalleryPhotoTagged: {"{actorName} tagged you in a photo", "{galleryTitle}", "/galleries/{galleryId}", "image"},

	common.RentalInquiry:          {"New inquiry for {rentalTitle}", "{actorName}: {message}", "/rentals/{rentalId}", "home"},
	common.RentalBookingConfirmed: {"Booking confirmed: {rentalTitle}", "{startDate} to {endDate}", "/rentals/{rentalId}", "key"},

	common.EventRSVP:     {"{actorName} is attending {eventTitle}", "{actorName} RSVP'd to {eventTitle}", "/events/{eventId}", "calendar"},
	common.EventReminder: {"Reminder: {eventTitle}", "Starts at {startTime}", "/events/{eventId}", "bell"},
	common.EventCheckin:  {"{actorName} checked in to {eventTitle}", "{actorName} has arrived at {eventTitle}", "/events/{eventId}", "check"},
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Format renders the message of one notification. Missing payload fields
// render empty; unknown types get a generic message.
func Format(t common.NotificationType, payload map[string]interface{}, actorName string) Message {
	tmpl, ok := templates[t]
	if !ok {
		return Message{Title: fallbackTitle, Body: fallbackBody, ActionURL: "/notifications", Icon: "bell"}
	}
	if actorName == "" {
		actorName = unknownActor
	}

	fill := func(s string) string {
		return placeholder.ReplaceAllStringFunc(s, func(m string) string {
			key := m[1 : len(m)-1]
			if key == "actorName" {
				return actorName
			}
			return stringify(payload[key])
		})
	}
	return Message{
		Title:     fill(tmpl.title),
		Body:      fill(tmpl.body),
		ActionURL: fill(tmpl.actionURL),
		Icon:      tmpl.icon,
	}
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// ValidateTemplates reports registered types that would render the generic
// message.
func ValidateTemplates() error {
	var missing []string
	for _, t := range common.NotificationTypes() {
		if _, ok := templates[t]; !ok {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("notification types without a template: %v", missing)
	}
	return nil
}
