package authz

import "github.com/google/uuid"

// Principal predicates.
var (
	// IsAuthenticated fails with ErrNotAuthorized for anonymous requests.
	IsAuthenticated = NewPredicate("IsAuthenticated", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		return nil
	})

	// IsAuthor requires the principal to hold an author record.
	IsAuthor = NewPredicate("IsAuthor", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		if pc.Author() == nil {
			return Deny(ErrPermissionDenied, "", "principal is not an author")
		}
		return nil
	})

	// IsVerifiedAuthor requires a verified author record.
	IsVerifiedAuthor = NewPredicate("IsVerifiedAuthor", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		author := pc.Author()
		if author == nil || !author.Verified {
			return Deny(ErrPermissionDenied, "", "verified author required")
		}
		return nil
	})

	// IsNotAdminGroup keeps admins and superadmins out of author-only flows.
	IsNotAdminGroup = NewPredicate("IsNotAdminGroup", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		if pc.Principal.InAdminGroup() {
			return Deny(ErrPermissionDenied, "", "admin group members cannot act as authors")
		}
		return nil
	})

	// IsAdminGroup requires an admin or superadmin principal.
	IsAdminGroup = NewPredicate("IsAdminGroup", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		if !pc.Principal.InAdminGroup() {
			return Deny(ErrPermissionDenied, "", "admin group membership required")
		}
		return nil
	})

	// IsSuperadmin requires a superadmin principal.
	IsSuperadmin = NewPredicate("IsSuperadmin", FieldNone, func(pc *Context) error {
		if pc.Principal == nil {
			return Deny(ErrNotAuthorized, "", "authentication required")
		}
		if !pc.Principal.IsSuperadmin() {
			return Deny(ErrPermissionDenied, "", "superadmin required")
		}
		return nil
	})
)

// Course predicates.
var (
	// IsCourseOwner passes when the acting author wrote the course.
	IsCourseOwner = NewPredicate("IsCourseOwner", FieldCourse, func(pc *Context) error {
		return ownsResource(pc.Author(), pc.Course.AuthorID, "course")
	})

	// IsCourseActive passes for active courses.
	IsCourseActive = NewPredicate("IsCourseActive", FieldCourse, func(pc *Context) error {
		if !pc.Course.Active {
			return Deny(ErrPermissionDenied, "", "course is not active")
		}
		return nil
	})

	// IsCourseActiveOrOwner lets anyone see an active course and only its
	// author see an inactive one.
	IsCourseActiveOrOwner = NewPredicate("IsCourseActiveOrOwner", FieldCourse, func(pc *Context) error {
		if pc.Course.Active {
			return nil
		}
		return ownsResource(pc.Author(), pc.Course.AuthorID, "course")
	})
)

// Lesson predicates. Lesson ownership is inherited from the course.
var (
	// IsLessonOwner passes when the acting author owns the lesson's course.
	IsLessonOwner = NewPredicate("IsLessonOwner", FieldLesson, func(pc *Context) error {
		return ownsResource(pc.Author(), pc.Lesson.AuthorID, "lesson")
	})

	// IsLessonPublished passes for published lessons.
	IsLessonPublished = NewPredicate("IsLessonPublished", FieldLesson, func(pc *Context) error {
		if !pc.Lesson.Published {
			return Deny(ErrPermissionDenied, "", "lesson is not published")
		}
		return nil
	})

	// IsLessonPublishedOrOwner lets anyone see a published lesson and only
	// the course author see a draft.
	IsLessonPublishedOrOwner = NewPredicate("IsLessonPublishedOrOwner", FieldLesson, func(pc *Context) error {
		if pc.Lesson.Published {
			return nil
		}
		return ownsResource(pc.Author(), pc.Lesson.AuthorID, "lesson")
	})
)

// IsPaymentOwner passes when the principal made the payment.
var IsPaymentOwner = NewPredicate("IsPaymentOwner", FieldPayment, func(pc *Context) error {
	if pc.Principal == nil || pc.Principal.ID != pc.Payment.UserID {
		return Deny(ErrPermissionDenied, "", "principal does not own the payment")
	}
	return nil
})

func ownsResource(author *AuthorRef, ownerID uuid.UUID, kind string) error {
	if author == nil {
		return Deny(ErrPermissionDenied, "", kind+" requires its author")
	}
	if author.ID != ownerID {
		return Deny(ErrPermissionDenied, "", "principal does not own the "+kind)
	}
	return nil
}
