package models

// Service is a registry row describing where and how to dispatch requests
// for one service id. The hub only reads it.
type Service struct {
	ID              int32   `json:"id" gorm:"primaryKey"`
	Name            string  `json:"name" gorm:"not null"`
	Exchange        string  `json:"exchange" gorm:"not null"`
	Queue           string  `json:"queue" gorm:"not null"`
	RoutingKey      string  `json:"routing_key" gorm:"not null"`
	CacheFields     string  `json:"cache_fields" gorm:"not null;default:''"`
	CacheExpiration *string `json:"cache_expiration"`
	Timeout         int32   `json:"timeout" gorm:"not null"`
}
