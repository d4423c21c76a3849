package domain

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. The single symmetric predicate covers
// partial overlap and containment in both directions; touching endpoints do
// not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// HasConflict reports whether the candidate interval [start, end) collides
// with any active booking in bookings, which the caller has already narrowed
// to a single day. excludeID skips one booking so an update does not conflict
// with the row it is rewriting; pass 0 when creating.
func HasConflict(bookings []Booking, start, end TimeOfDay, excludeID int64) bool {
	for _, b := range bookings {
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.Active() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return true
		}
	}
	return false
}
