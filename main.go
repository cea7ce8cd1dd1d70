package main

import "github.com/killallgit/diarist/cmd"

// @title           diarist status API
// @version         1.0.0
// @description     Read-only view of diarization sessions and the speaker registry
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/diarist
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	cmd.Execute()
}
