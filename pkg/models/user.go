package models

type UserPreferences struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	TableNumber   string `json:"tableNumber"`
	FavoriteItems []int  `json:"favoriteItems"`
}

// Clone returns a copy that does not share the favorites slice.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	out.FavoriteItems = append([]int{}, p.FavoriteItems...)
	return out
}

// Profile is the identity handed to the user store on login.
type Profile struct {
	UID         string `json:"uid,omitempty"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	TableNumber string `json:"tableNumber,omitempty"`
}

// PreferencesPatch carries a partial update; nil fields are left untouched.
type PreferencesPatch struct {
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	TableNumber *string `json:"tableNumber,omitempty"`
}
