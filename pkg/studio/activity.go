package studio

import "strings"

// ActivityNames lists the engine activities in id order; the index is the id.
var ActivityNames = []string{
	"ACT_RESET", // 0
	"ACT_IDLE",
	"ACT_GUARD",
	"ACT_WALK",
	"ACT_RUN",
	"ACT_FLY",
	"ACT_SWIM",
	"ACT_HOP",
	"ACT_LEAP",
	"ACT_FALL",
	"ACT_LAND", // 10
	"ACT_STRAFE_LEFT",
	"ACT_STRAFE_RIGHT",
	"ACT_ROLL_LEFT",
	"ACT_ROLL_RIGHT",
	"ACT_TURN_LEFT",
	"ACT_TURN_RIGHT",
	"ACT_CROUCH",
	"ACT_CROUCHIDLE",
	"ACT_STAND",
	"ACT_USE", // 20
	"ACT_SIGNAL1",
	"ACT_SIGNAL2",
	"ACT_SIGNAL3",
	"ACT_TWITCH",
	"ACT_COWER",
	"ACT_SMALL_FLINCH",
	"ACT_BIG_FLINCH",
	"ACT_RANGE_ATTACK1",
	"ACT_RANGE_ATTACK2",
	"ACT_MELEE_ATTACK1", // 30
	"ACT_MELEE_ATTACK2",
	"ACT_RELOAD",
	"ACT_ARM",
	"ACT_DISARM",
	"ACT_EAT",
	"ACT_DIESIMPLE",
	"ACT_DIEBACKWARD",
	"ACT_DIEFORWARD",
	"ACT_DIEVIOLENT",
	"ACT_BARNACLE_HIT", // 40
	"ACT_BARNACLE_PULL",
	"ACT_BARNACLE_CHOMP",
	"ACT_BARNACLE_CHEW",
	"ACT_SLEEP",
	"ACT_INSPECT_FLOOR",
	"ACT_INSPECT_WALL",
	"ACT_IDLE_ANGRY",
	"ACT_WALK_HURT",
	"ACT_RUN_HURT",
	"ACT_HOVER", // 50
	"ACT_GLIDE",
	"ACT_FLY_LEFT",
	"ACT_FLY_RIGHT",
	"ACT_DETECT_SCENT",
	"ACT_SNIFF",
	"ACT_BITE",
	"ACT_THREAT_DISPLAY",
	"ACT_FEAR_DISPLAY",
	"ACT_EXCITED",
	"ACT_SPECIAL_ATTACK1", // 60
	"ACT_SPECIAL_ATTACK2",
	"ACT_COMBAT_IDLE",
	"ACT_WALK_SCARED",
	"ACT_RUN_SCARED",
	"ACT_VICTORY_DANCE",
	"ACT_DIE_HEADSHOT",
	"ACT_DIE_CHESTSHOT",
	"ACT_DIE_GUTSHOT",
	"ACT_DIE_BACKSHOT",
	"ACT_FLINCH_HEAD", // 70
	"ACT_FLINCH_CHEST",
	"ACT_FLINCH_STOMACH",
	"ACT_FLINCH_LEFTARM",
	"ACT_FLINCH_RIGHTARM",
	"ACT_FLINCH_LEFTLEG",
	"ACT_FLINCH_RIGHTLEG",
}

// LookupActivity returns the id of a named activity (case-insensitive).
func LookupActivity(name string) (int, bool) {
	for i, n := range ActivityNames {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// motionNames maps script keywords to motion/controller type flags.
var motionNames = []struct {
	name string
	flag int
}{
	{"X", X}, {"Y", Y}, {"Z", Z},
	{"XR", XR}, {"YR", YR}, {"ZR", ZR},
	{"LX", LX}, {"LY", LY}, {"LZ", LZ},
	{"AX", AX}, {"AY", AY}, {"AZ", AZ},
	{"AXR", AXR}, {"AYR", AYR}, {"AZR", AZR},
}

// LookupMotion returns the flag for a motion keyword such as "LX" or "ZR".
func LookupMotion(name string) (int, bool) {
	for _, m := range motionNames {
		if strings.EqualFold(m.name, name) {
			return m.flag, true
		}
	}
	return 0, false
}
