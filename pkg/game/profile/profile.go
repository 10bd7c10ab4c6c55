// Package profile carries the player identity and memory settings fed
// into the launch command.
package profile

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

type Memory struct {
	Xmx int `json:"xmx"` // The maximum memory to use in GB
	Xms int `json:"xms"` // The minimum memory to use in GB
}

func (m Memory) ToArgs() []string {
	return []string{
		"-Xmx" + strconv.Itoa(m.Xmx) + "G",
		"-Xms" + strconv.Itoa(m.Xms) + "G",
	}
}

type Profile struct {
	Username string `json:"username"`
	UUID     string `json:"uuid"`
	UserType string `json:"userType"`
	Token    string `json:"token"`
	Memory   Memory `json:"memory"`
}

func NewProfile() *Profile {
	p := &Profile{
		Username: "steve",
		UserType: "legacy",
		Memory:   Memory{Xmx: 4, Xms: 2},
	}
	p.UUID = OfflineUUID(p.Username)
	return p
}

func (p *Profile) SetUser(username string) {
	p.Username = username
	p.UUID = OfflineUUID(username)
}

func (p *Profile) SetMemory(xmx int, xms int) {
	p.Memory.Xmx = xmx
	p.Memory.Xms = xms
}

// OfflineUUID derives the name-based UUID the game itself uses for
// offline players (version-3 UUID of "OfflinePlayer:<name>").
func OfflineUUID(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80

	h := hex.EncodeToString(sum[:])
	return strings.Join([]string{h[:8], h[8:12], h[12:16], h[16:20], h[20:]}, "-")
}
