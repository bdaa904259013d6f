package common

import (
	"fmt"
	"sort"
)

type Category string

const (
	CategoryCommunications Category = "communications"
	CategoryMarketplace    Category = "marketplace"
	CategoryJobs           Category = "jobs"
	CategoryCommunity      Category = "community"
	CategoryRentals        Category = "rentals"
	CategoryEvents         Category = "events"
)

// SubcategoryAll is the master switch row of every category.
const SubcategoryAll = "all"

type EmailFrequency string

const (
	FrequencyInstant EmailFrequency = "instant"
	FrequencyDaily   EmailFrequency = "daily"
	FrequencyWeekly  EmailFrequency = "weekly"
)

func (f EmailFrequency) Valid() bool {
	switch f {
	case FrequencyInstant, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

type NotificationType string

const (
	MessageReceived NotificationType = "message_received"
	ForumReply      NotificationType = "forum_reply"
	ForumMention    NotificationType = "forum_mention"

	MarketplaceOfferReceived NotificationType = "marketplace_offer_received"
	MarketplaceOfferAccepted NotificationType = "marketplace_offer_accepted"
	MarketplaceItemSold      NotificationType = "marketplace_item_sold"
	SkillSwapRequest         NotificationType = "skill_swap_request"
	SkillSwapSessionBooked   NotificationType = "skill_swap_session_booked"

	JobApplicationReceived NotificationType = "job_application_received"
	JobApplicationStatus   NotificationType = "job_application_status"
	JobPosted              NotificationType = "job_posted"

	IdeaUpvoted        NotificationType = "idea_upvoted"
	IdeaCommented      NotificationType = "idea_commented"
	LostItemMatch      NotificationType = "lost_item_match"
	FoundItemClaimed   NotificationType = "found_item_claimed"
	GalleryPhotoTagged NotificationType = "gallery_photo_tagged"

	RentalInquiry          NotificationType = "rental_inquiry"
	RentalBookingConfirmed NotificationType = "rental_booking_confirmed"

	EventRSVP     NotificationType = "event_rsvp"
	EventReminder NotificationType = "event_reminder"
	EventCheckin  NotificationType = "event_checkin"
)

// Classification is the preference key a notification type is gated by.
type Classification struct {
	Category    Category
	Subcategory string
}

var subcategories = map[Category][]string{
	CategoryCommunications: {SubcategoryAll, "direct_messages", "forum_replies", "mentions"},
	CategoryMarketplace:    {SubcategoryAll, "offers", "listings", "skill_swap"},
	CategoryJobs:           {SubcategoryAll, "applications", "postings"},
	CategoryCommunity:      {SubcategoryAll, "ideas", "lost_found", "galleries"},
	CategoryRentals:        {SubcategoryAll, "inquiries", "bookings"},
	CategoryEvents:         {SubcategoryAll, "rsvps", "reminders", "checkins"},
}

var registry = map[NotificationType]Classification{
	MessageReceived: {CategoryCommunications, "direct_messages"},
	ForumReply:      {CategoryCommunications, "forum_replies"},
	ForumMention:    {CategoryCommunications, "mentions"},

	MarketplaceOfferReceived: {CategoryMarketplace, "offers"},
	MarketplaceOfferAccepted: {CategoryMarketplace, "offers"},
	MarketplaceItemSold:      {CategoryMarketplace, "listings"},
	SkillSwapRequest:         {CategoryMarketplace, "skill_swap"},
	SkillSwapSessionBooked:   {CategoryMarketplace, "skill_swap"},

	JobApplicationReceived: {CategoryJobs, "applications"},
	JobApplicationStatus:   {CategoryJobs, "applications"},
	JobPosted:              {CategoryJobs, "postings"},

	IdeaUpvoted:        {CategoryCommunity, "ideas"},
	IdeaCommented:      {CategoryCommunity, "ideas"},
	LostItemMatch:      {CategoryCommunity, "lost_found"},
	FoundItemClaimed:   {CategoryCommunity, "lost_found"},
	GalleryPhotoTagged: {CategoryCommunity, "galleries"},

	RentalInquiry:          {CategoryRentals, "inquiries"},
	RentalBookingConfirmed: {CategoryRentals, "bookings"},

	EventRSVP:     {CategoryEvents, "rsvps"},
	EventReminder: {CategoryEvents, "reminders"},
	EventCheckin:  {CategoryEvents, "checkins"},
}

// Unclassified is used for types missing from the registry.
var Unclassified = Classification{Category: CategoryCommunity, Subcategory: SubcategoryAll}

// Classify returns the preference key for t. ok is false for unknown types,
// which are mapped to Unclassified.
func Classify(t NotificationType) (Classification, bool) {
	c, ok := registry[t]
	if !ok {
		return Unclassified, false
	}
	return c, true
}

func (t NotificationType) Known() bool {
	_, ok := registry[t]
	return ok
}

// Categories returns every category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryCommunications,
		CategoryMarketplace,
		CategoryJobs,
		CategoryCommunity,
		CategoryRentals,
		CategoryEvents,
	}
}

func (c Category) Valid() bool {
	_, ok := subcategories[c]
	return ok
}

// Subcategories lists the preference rows of c, "all" first.
func Subcategories(c Category) []string {
	subs := subcategories[c]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

func NotificationTypes() []NotificationType {
	types := make([]NotificationType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ValidateRegistry checks that every registered type points at a known
// category and at a subcategory that category declares. Run at startup.
func ValidateRegistry() error {
	for _, c := range Categories() {
		subs, ok := subcategories[c]
		if !ok || len(subs) == 0 || subs[0] != SubcategoryAll {
			return fmt.Errorf("category %q must declare %q as its first subcategory", c, SubcategoryAll)
		}
	}
	if len(subcategories) != len(Categories()) {
		return fmt.Errorf("subcategory table has %d categories, expected %d", len(subcategories), len(Categories()))
	}
	for t, cl := range registry {
		subs, ok := subcategories[cl.Category]
		if !ok {
			return fmt.Errorf("type %q maps to unknown category %q", t, cl.Category)
		}
		if !contains(subs, cl.Subcategory) {
			return fmt.Errorf("type %q maps to subcategory %q not declared by %q", t, cl.Subcategory, cl.Category)
		}
	}
	if !contains(subcategories[Unclassified.Category], Unclassified.Subcategory) {
		return fmt.Errorf("fallback classification %v is not a preference row", Unclassified)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
