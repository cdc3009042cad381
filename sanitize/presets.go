package sanitize

var presetFieldSets = map[Preset][]string{
	PresetMinimal: {
		"password", "secret", "apiKey", "token",
	},
	PresetDefault: {
		"password", "token", "secret", "apiKey", "authorization",
		"creditCard", "ssn", "email", "phone",
	},
	PresetGDPR: {
		"password", "token", "secret", "apiKey", "authorization",
		"creditCard", "ssn", "email", "phone",
		"firstName", "lastName", "fullName", "address", "dateOfBirth",
		"nationalId", "passportNumber", "ipAddress",
	},
	PresetHIPAA: {
		"password", "token", "secret", "apiKey", "authorization",
		"creditCard", "ssn", "email", "phone",
		"patientId", "diagnosis", "medicalRecordNumber", "prescription",
		"treatment", "insuranceId",
	},
	PresetPCIDSS: {
		"password", "token", "secret", "apiKey", "authorization",
		"creditCard", "cardNumber", "cvv", "cvc", "expirationDate",
		"cardholderName",
	},
}
