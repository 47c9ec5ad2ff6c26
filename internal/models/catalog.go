package models

import "time"

type Restaurant struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `                                json:"description"`
	City        string    `gorm:"index"                    json:"city"`
	Address     string    `                                json:"address"`
	Rating      *float64  `                                json:"rating"`
	OwnerID     *uint     `gorm:"index"                    json:"owner_id"`
	CreatedAt   time.Time `                                json:"created_at"`

	Owner *Account `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Restaurant) TableName() string { return "restaurants" }

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `                                     json:"description"`
	CreatedAt   time.Time `                                     json:"created_at"`
}

func (Category) TableName() string { return "dish_categories" }

type Dish struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	RestaurantID uint      `gorm:"index;not null"            json:"restaurant_id"`
	CategoryID   uint      `gorm:"index;not null"            json:"category_id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Price        int64     `gorm:"not null;check:price >= 0" json:"price"`
	ImageURL     string    `                                 json:"image_url"`
	IsAvailable  bool      `gorm:"not null"                  json:"is_available"`
	CreatedAt    time.Time `                                 json:"created_at"`

	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"-"`
	Category   *Category   `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"  json:"-"`
}

func (Dish) TableName() string { return "dishes" }

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	UserID    uint      `gorm:"index;not null"                             json:"user_id"`
	DishID    uint      `gorm:"index;not null"                             json:"dish_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `                                                  json:"comment"`
	CreatedAt time.Time `                                                  json:"created_at"`

	User *Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Dish *Dish    `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Review) TableName() string { return "reviews" }

// All lists every table in migration order.
func All() []any {
	return []any{
		&Account{},
		&Profile{},
		&RefreshToken{},
		&Restaurant{},
		&Category{},
		&Dish{},
		&Review{},
	}
}
