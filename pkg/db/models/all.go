package models

// All lists every persisted model. Tests and the dev bootstrap AutoMigrate it.
func All() []any {
	return []any{
		&AdminUser{},
		&Product{},
		&ProductVariant{},
		&Order{},
		&OrderItem{},
		&FulfillmentRecord{},
		&PlatformConfig{},
		&NotificationTemplate{},
		&CommunicationLog{},
		&TrackingRecord{},
		&AnalysisRun{},
		&Review{},
	}
}
