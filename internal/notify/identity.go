package notify

import "fmt"

// Identity construction is a contract: reschedules rely on producing the
// exact same string for the same subject. None of these encode the lead
// time, so changing an offset replaces the pending reminder instead of
// adding a second one.

// OwnerIdentity keys the race owner's "finish your race details" reminder.
func OwnerIdentity(ownerID, raceID string) string {
	return fmt.Sprintf("owner:%s:%s:details", ownerID, raceID)
}

// Watching reminder slots. Each slot is independently scheduled and
// cancelled.
const (
	SlotFirst  = "first"
	SlotSecond = "second"
)

func WatchIdentity(raceID, slot string) string {
	return fmt.Sprintf("watch:%s:%s", raceID, slot)
}

// FeaturedEventKey composes the watched-event key. The separator matches the
// stored watch-list document ids.
func FeaturedEventKey(meetID, eventID string) string {
	return meetID + "_::" + eventID
}

func FeaturedIdentity(eventKey string) string {
	return "watch-featured:" + eventKey
}
