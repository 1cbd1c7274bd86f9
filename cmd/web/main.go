package main

import "homepro_backend/internal/app"

func main() {
	app.Run()
}
