package entity

type User struct {
	Base
	FCMToken *string `db:"fcm_token"`
}
