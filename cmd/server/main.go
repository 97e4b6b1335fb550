package main

import "userauth/internal/app"

// @title           User Auth API
// @version         1.0
// @description     User accounts, authentication and password reset.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
