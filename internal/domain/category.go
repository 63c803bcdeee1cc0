package domain

// Category is one of the fixed service niches the pipeline collects.
// Unmapped provider categories resolve to CategoryUnknown, never to a new
// value.
type Category string

const (
	CategoryAutoService Category = "auto_service"
	CategoryHandyman    Category = "handyman"
	CategoryCleaning    Category = "cleaning"
	CategoryMoving      Category = "moving"
	CategoryEducation   Category = "education"
	CategoryFitness     Category = "fitness"
	CategoryPhotoVideo  Category = "photo_video"
	CategoryLegal       Category = "legal"
	CategoryPsychology  Category = "psychology"
	CategoryTattoo      Category = "tattoo"
	CategoryUnknown     Category = "unknown"
)

func AllCategories() []Category {
	return []Category{
		CategoryAutoService, CategoryHandyman, CategoryCleaning,
		CategoryMoving, CategoryEducation, CategoryFitness,
		CategoryPhotoVideo, CategoryLegal, CategoryPsychology, CategoryTattoo,
	}
}

func (c Category) Valid() bool {
	if c == CategoryUnknown {
		return true
	}
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}
