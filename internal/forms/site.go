package forms

// Questionnaire is the customer site questionnaire.
var Questionnaire = NewSchema("site_questionnaire",
	Field{Key: "current_phone_system", Kind: KindString, Label: "Current phone system", MaxLen: 200},
	Field{Key: "number_of_sites", Kind: KindInt, Label: "Number of sites", Min: AtLeast(0)},
	Field{Key: "internet_bandwidth_mbps", Kind: KindInt, Label: "Internet bandwidth (Mbps)", Min: AtLeast(0)},
	Field{Key: "has_analog_devices", Kind: KindBool, Label: "Analog devices (fax, door phones, elevators)"},
	Field{Key: "analog_device_count", Kind: KindInt, Label: "Analog device count", Min: AtLeast(0)},
	Field{Key: "has_call_queues", Kind: KindBool, Label: "Call queues / hunt groups"},
	Field{Key: "call_queue_count", Kind: KindInt, Label: "Call queue count", Min: AtLeast(0)},
	Field{Key: "has_auto_attendants", Kind: KindBool, Label: "Auto attendants / IVR"},
	Field{Key: "auto_attendant_count", Kind: KindInt, Label: "Auto attendant count", Min: AtLeast(0)},
	Field{Key: "needs_common_area_phones", Kind: KindBool, Label: "Common area phones"},
	Field{Key: "emergency_address_confirmed", Kind: KindBool, Label: "Emergency (E911) address confirmed"},
	Field{Key: "preferred_cutover_window", Kind: KindEnum, Label: "Preferred cutover window",
		Options: []string{"business_hours", "after_hours", "weekend"}},
	Field{Key: "site_contact_name", Kind: KindString, Label: "Site contact name", MaxLen: 200},
	Field{Key: "site_contact_phone", Kind: KindString, Label: "Site contact phone", MaxLen: 50},
	Field{Key: "additional_notes", Kind: KindString, Label: "Additional notes", MaxLen: 4000},
)

// PhaseTasks is the staff checklist for the user configuration phase.
var PhaseTasks = NewSchema("phase_tasks",
	Field{Key: "teams_licenses_assigned", Kind: KindBool, Label: "Teams Phone licenses assigned"},
	Field{Key: "emergency_locations_created", Kind: KindBool, Label: "Emergency locations created"},
	Field{Key: "resource_accounts_created", Kind: KindBool, Label: "Resource accounts created"},
	Field{Key: "call_queues_configured", Kind: KindBool, Label: "Call queues configured"},
	Field{Key: "auto_attendants_configured", Kind: KindBool, Label: "Auto attendants configured"},
	Field{Key: "voice_routing_policy_assigned", Kind: KindBool, Label: "Voice routing policy assigned"},
	Field{Key: "dial_plan_assigned", Kind: KindBool, Label: "Dial plan assigned"},
	Field{Key: "numbers_assigned", Kind: KindBool, Label: "Numbers assigned to users"},
	Field{Key: "test_calls_completed", Kind: KindBool, Label: "Inbound/outbound test calls completed"},
	Field{Key: "old_system_decommissioned", Kind: KindBool, Label: "Old system decommissioned"},
)
