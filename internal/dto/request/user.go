package request

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=2,max=50"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=2,max=50"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,min=10,max=15"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" validate:"omitempty,iso8601"`
}

func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.PhoneNumber == nil && r.DateOfBirth == nil
}
