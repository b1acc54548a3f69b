package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError lists every structural problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// validate performs all structural checks. Returns a *ValidationError
// describing all problems found, or nil if valid.
func validate(courses []Course) error {
	var errs []string

	if len(courses) == 0 {
		errs = append(errs, "catalog has no courses")
	}

	courseIDs := make(map[string]bool, len(courses))
	courseOrders := make([]int, 0, len(courses))
	lessonIDs := make(map[string]string)
	cardIDs := make(map[string]string)

	for _, c := range courses {
		if c.ID == "" {
			errs = append(errs, "course with empty id")
		}
		if courseIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate course id %q", c.ID))
		}
		courseIDs[c.ID] = true
		courseOrders = append(courseOrders, c.Order)

		if len(c.Lessons) == 0 {
			errs = append(errs, fmt.Sprintf("course %q has no lessons", c.ID))
		}

		lessonOrders := make([]int, 0, len(c.Lessons))
		for _, l := range c.Lessons {
			prefix := fmt.Sprintf("course %q lesson %q", c.ID, l.ID)
			if l.ID == "" {
				errs = append(errs, fmt.Sprintf("course %q has a lesson with empty id", c.ID))
			}
			if other, dup := lessonIDs[l.ID]; dup {
				errs = append(errs, fmt.Sprintf("%s: id already used in course %q", prefix, other))
			}
			lessonIDs[l.ID] = c.ID
			lessonOrders = append(lessonOrders, l.Order)

			switch l.ContentType {
			case ContentLesson, ContentQuiz, ContentReading:
			default:
				errs = append(errs, fmt.Sprintf("%s: unknown content type %q", prefix, l.ContentType))
			}
			if l.Bonus < 0 {
				errs = append(errs, fmt.Sprintf("%s: bonus must be >= 0, got %d", prefix, l.Bonus))
			}
			if l.IsQuiz() && l.GradedCount() == 0 {
				errs = append(errs, fmt.Sprintf("%s: quiz has no graded cards", prefix))
			}

			for _, card := range l.Cards {
				if err := card.Validate(); err != nil {
					errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
					continue
				}
				if other, dup := cardIDs[card.ID]; dup {
					errs = append(errs, fmt.Sprintf("%s: card id %q already used in lesson %q", prefix, card.ID, other))
				}
				cardIDs[card.ID] = l.ID
			}
		}
		if msg := checkContiguous(lessonOrders); msg != "" {
			errs = append(errs, fmt.Sprintf("course %q lesson order %s", c.ID, msg))
		}
	}
	if msg := checkContiguous(courseOrders); msg != "" {
		errs = append(errs, "course order "+msg)
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// checkContiguous returns a description of the problem if orders is not a
// permutation of 1..len(orders).
func checkContiguous(orders []int) string {
	if len(orders) == 0 {
		return ""
	}
	sorted := slices.Clone(orders)
	slices.Sort(sorted)
	for i, o := range sorted {
		if i > 0 && o == sorted[i-1] {
			return fmt.Sprintf("has duplicate value %d", o)
		}
		if o != i+1 {
			return fmt.Sprintf("must be contiguous from 1, got %v", sorted)
		}
	}
	return ""
}
