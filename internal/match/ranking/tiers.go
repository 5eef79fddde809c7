package ranking

// Tier is a named rating band shown on profiles and the leaderboard
type Tier struct {
	Name      string `json:"name"`
	MinRating int    `json:"min_rating"`
	MaxRating int    `json:"max_rating"`
}

// PlacementTier is shown while a player is still in placement
var PlacementTier = Tier{Name: "Placement"}

// Available tiers in ascending order
var Tiers = []Tier{
	{Name: "Bronze", MinRating: RatingFloor, MaxRating: 799},
	{Name: "Silver", MinRating: 800, MaxRating: 999},
	{Name: "Gold", MinRating: 1000, MaxRating: 1199},
	{Name: "Platinum", MinRating: 1200, MaxRating: 1399},
	{Name: "Diamond", MinRating: 1400, MaxRating: 0},
}

// GetTierByRating returns the tier for a given rating. Diamond has no upper bound.
func GetTierByRating(rating int) Tier {
	for _, tier := range Tiers {
		if rating >= tier.MinRating && (tier.MaxRating == 0 || rating <= tier.MaxRating) {
			return tier
		}
	}
	return Tiers[0] // below the floor only happens for legacy rows
}

// TierFor returns the tier a player is displayed with.
func TierFor(rating, rankedGames int) Tier {
	if InPlacement(rankedGames) {
		return PlacementTier
	}
	return GetTierByRating(rating)
}
