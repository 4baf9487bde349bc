package wire

// seedSchema is the constructor-argument tuple for one entry of the initial
// registry. Kept as a plain struct rather than *PacketSchema so NewRegistry
// can run the same validation RegisterSchema runs for caller-supplied
// schemas.
type seedSchema struct {
	packetType int
	name       string
	hasDelta   bool
	fields     []FieldSchema
}

// seedSchemas returns the packet definitions recovered from
// original_source/fc_client/packet_specs.py: the four pinned negotiation
// packets, server-info, chat-msg, the array-diff carrier game-info, and a
// handful of ruleset packets the distillation dropped.
func seedSchemas() []seedSchema {
	return []seedSchema{
		{
			packetType: PacketProcessingStarted,
			name:       "PACKET_PROCESSING_STARTED",
			hasDelta:   false,
			fields:     nil,
		},
		{
			packetType: PacketProcessingFinished,
			name:       "PACKET_PROCESSING_FINISHED",
			hasDelta:   false,
			fields:     nil,
		},
		{
			packetType: PacketServerJoinReq,
			name:       "PACKET_SERVER_JOIN_REQ",
			hasDelta:   false,
			fields: []FieldSchema{
				{Name: "username", Kind: KindString},
				{Name: "capability", Kind: KindString},
				{Name: "version_label", Kind: KindString},
				{Name: "major_version", Kind: KindU32},
				{Name: "minor_version", Kind: KindU32},
				{Name: "patch_version", Kind: KindU32},
			},
		},
		{
			packetType: PacketServerJoinReply,
			name:       "PACKET_SERVER_JOIN_REPLY",
			hasDelta:   false,
			fields: []FieldSchema{
				{Name: "you_can_join", Kind: KindBool},
				{Name: "message", Kind: KindString},
				{Name: "capability", Kind: KindString},
				{Name: "challenge_file", Kind: KindString},
			},
		},
		{
			packetType: PacketServerInfo,
			name:       "PACKET_SERVER_INFO",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "version_label", Kind: KindString},
				{Name: "major_version", Kind: KindU32},
				{Name: "minor_version", Kind: KindU32},
				{Name: "patch_version", Kind: KindU32},
				{Name: "emerg_version", Kind: KindU32},
			},
		},
		{
			packetType: PacketChatMsg,
			name:       "PACKET_CHAT_MSG",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "message", Kind: KindString},
				{Name: "tile", Kind: KindS32},
				{Name: "event", Kind: KindS16},
				{Name: "turn", Kind: KindS16},
				{Name: "phase", Kind: KindS16},
				{Name: "conn_id", Kind: KindS16},
			},
		},
		{
			// A_LAST = MAX_NUM_ADVANCES + 1 = 401; B_LAST = MAX_NUM_BUILDINGS = 200.
			packetType: PacketGameInfo,
			name:       "PACKET_GAME_INFO",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "global_advance_count", Kind: KindU16},
				{
					Name: "global_advances", Kind: KindArray,
					ElementKind: KindBool, Capacity: 401, UseDiff: true,
				},
				{
					Name: "great_wonder_owners", Kind: KindArray,
					ElementKind: KindS8, Capacity: 200, UseDiff: true,
				},
			},
		},
		{
			packetType: PacketRulesetControl,
			name:       "PACKET_RULESET_CONTROL",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "num_unit_classes", Kind: KindU16},
				{Name: "num_unit_types", Kind: KindU16},
				{Name: "num_impr_types", Kind: KindU16},
				{Name: "num_tech_classes", Kind: KindU16},
				{Name: "num_tech_types", Kind: KindU16},
				{Name: "num_extra_types", Kind: KindU16},
				{Name: "num_base_types", Kind: KindU16},
				{Name: "num_road_types", Kind: KindU16},
				{Name: "num_resource_types", Kind: KindU16},
				{Name: "num_goods_types", Kind: KindU16},
				{Name: "num_disaster_types", Kind: KindU16},
				{Name: "num_achievement_types", Kind: KindU16},
				{Name: "num_multipliers", Kind: KindU16},
				{Name: "num_styles", Kind: KindU16},
				{Name: "num_music_styles", Kind: KindU16},
				{Name: "government_count", Kind: KindU16},
				{Name: "nation_count", Kind: KindU16},
				{Name: "num_city_styles", Kind: KindU16},
				{Name: "terrain_count", Kind: KindU16},
				{Name: "num_specialist_types", Kind: KindU16},
				{Name: "num_nation_groups", Kind: KindU16},
				{Name: "num_nation_sets", Kind: KindU16},
				{Name: "preferred_tileset", Kind: KindString},
				{Name: "preferred_soundset", Kind: KindString},
				{Name: "preferred_musicset", Kind: KindString},
				{Name: "popup_tech_help", Kind: KindBool},
				{Name: "name", Kind: KindString},
				{Name: "version", Kind: KindString},
				{Name: "alt_dir", Kind: KindString},
				{Name: "desc_length", Kind: KindU32},
				{Name: "num_counters", Kind: KindU16},
			},
		},
		{
			// A plain, non-delta, multi-part text packet: the client
			// concatenates successive parts until it has accumulated
			// desc_length bytes reported by PACKET_RULESET_CONTROL.
			packetType: PacketRulesetDescriptionPart,
			name:       "PACKET_RULESET_DESCRIPTION_PART",
			hasDelta:   false,
			fields: []FieldSchema{
				{Name: "text", Kind: KindString},
			},
		},
		{
			packetType: PacketRulesetGovernmentRulerTitle,
			name:       "PACKET_RULESET_GOVERNMENT_RULER_TITLE",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "gov", Kind: KindS8},
				{Name: "nation", Kind: KindS16},
				{Name: "male_title", Kind: KindString},
				{Name: "female_title", Kind: KindString},
			},
		},
		{
			packetType: PacketRulesetUnitClass,
			name:       "PACKET_RULESET_UNIT_CLASS",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "id", Kind: KindU8},
				{Name: "name", Kind: KindString},
				{Name: "rule_name", Kind: KindString},
				{Name: "min_speed", Kind: KindU32},
				{Name: "hp_loss_pct", Kind: KindU8},
				{Name: "non_native_def_pct", Kind: KindU16},
				{Name: "flags", Kind: KindU32},
				{Name: "helptext", Kind: KindString},
			},
		},
		{
			packetType: PacketRulesetBase,
			name:       "PACKET_RULESET_BASE",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "id", Kind: KindU8},
				{Name: "gui_type", Kind: KindU8},
				{Name: "border_sq", Kind: KindS8},
				{Name: "vision_main_sq", Kind: KindS8},
				{Name: "vision_invis_sq", Kind: KindS8},
				{Name: "vision_subs_sq", Kind: KindS8},
			},
		},
		{
			packetType: PacketRulesetUnitFlag,
			name:       "PACKET_RULESET_UNIT_FLAG",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "id", Kind: KindU8},
				{Name: "name", Kind: KindString},
				{Name: "helptxt", Kind: KindString},
			},
		},
		{
			// All five fields are keys: a packet whose bitvector has zero
			// bits (spec.md §8 boundary behavior).
			packetType: PacketRulesetUnitBonus,
			name:       "PACKET_RULESET_UNIT_BONUS",
			hasDelta:   true,
			fields: []FieldSchema{
				{Name: "unit", Kind: KindU16, IsKey: true},
				{Name: "flag", Kind: KindU8, IsKey: true},
				{Name: "type", Kind: KindU8, IsKey: true},
				{Name: "value", Kind: KindS16, IsKey: true},
				{Name: "quiet", Kind: KindBool, IsKey: true},
			},
		},
	}
}
