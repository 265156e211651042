package access

// Rule computes a Decision for a subject.
type Rule func(s *Subject) Decision

// Always returns a rule that ignores the subject.
func Always(d Decision) Rule {
	return func(*Subject) Decision { return d }
}

// Require lifts a boolean predicate into a rule.
func Require(pred func(*Subject) bool) Rule {
	return func(s *Subject) Decision { return FromBool(pred(s)) }
}

// IsAdministrator reports whether s is present and flagged administrator.
func IsAdministrator(s *Subject) bool {
	return s != nil && s.Administrator
}

// OwnsResource restricts the operation to records owned by s.
func OwnsResource(s *Subject) Decision {
	if s == nil {
		return Deny
	}
	return AllowIf(Eq(FieldOwner, s.ID))
}

// IsSelf restricts the operation to the record that is s itself. It is
// meant for the User list, where identity takes the place of ownership.
func IsSelf(s *Subject) Decision {
	if s == nil {
		return Deny
	}
	return AllowIf(Eq(FieldID, s.ID))
}

// IsAdministratorOrOwner allows administrators everything and everyone
// else their own records.
func IsAdministratorOrOwner(s *Subject) Decision {
	return Or(FromBool(IsAdministrator(s)), OwnsResource(s))
}

// CanAccessUserRecord allows administrators every user record and
// everyone else only their own.
func CanAccessUserRecord(s *Subject) Decision {
	return Or(FromBool(IsAdministrator(s)), IsSelf(s))
}
