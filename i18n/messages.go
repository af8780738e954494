// Package i18n holds the user-facing strings of the form in English and
// Indonesian.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// English text doubles as the message key.
var indonesian = map[string]string{
	"Heart Disease Risk Prediction":                            "Sistem Prediksi Penyakit Jantung",
	"Fill in the form below with the patient's clinical data.": "Silakan isi formulir di bawah ini dengan data klinis pasien.",
	"Patient data":      "Data Pasien",
	"Predict":           "Prediksi Hasil",
	"Prediction result": "Hasil Prediksi",
	"Heart disease indicated":                                  "TERINDIKASI Penyakit Jantung",
	"Healthy / low risk":                                       "SEHAT / Risiko Rendah",
	"Probability: %.1f%%":                                      "Probabilitas: %.1f%%",
	"Probability of being healthy: %.1f%%":                     "Probabilitas Sehat: %.1f%%",
	"Recommendation: consult a cardiologist promptly for further examination.": "Saran: Disarankan untuk segera berkonsultasi dengan dokter spesialis jantung untuk pemeriksaan lebih lanjut.",
	"Recommendation: keep a healthy lifestyle, a balanced diet and regular exercise.": "Saran: Pertahankan gaya hidup sehat, pola makan seimbang, dan olahraga teratur.",
	"Model file '%s' was not found. Run the trainer first.": "File '%s' tidak ditemukan. Silakan jalankan pelatihan model terlebih dahulu.",
	"The model is unavailable: %s":                          "Model tidak tersedia: %s",
	"Some values are out of range: %s":                      "Beberapa nilai di luar rentang: %s",
	"Invalid form submission.":                              "Isian formulir tidak valid.",
	"Prediction failed. Please try again.":                  "Prediksi gagal. Silakan coba lagi.",

	"Age":                                   "Umur (Age)",
	"Age in years (20-100).":                "Usia dalam tahun (20-100).",
	"Sex":                                   "Jenis Kelamin (Sex)",
	"Male":                                  "Laki-laki",
	"Female":                                "Perempuan",
	"Chest pain type":                       "Tipe Nyeri Dada (Chest Pain Type)",
	"Type 0 - Typical angina":               "Tipe 0 - Typical Angina",
	"Type 1 - Atypical angina":              "Tipe 1 - Atypical Angina",
	"Type 2 - Non-anginal pain":             "Tipe 2 - Non-anginal Pain",
	"Type 3 - Asymptomatic":                 "Tipe 3 - Asymptomatic",
	"Resting blood pressure":                "Tekanan Darah Istirahat (Trestbps)",
	"In mm Hg (90-200).":                    "Dalam mm Hg (90-200).",
	"Serum cholesterol":                     "Kolesterol (Chol)",
	"In mg/dl (100-600).":                   "Dalam mg/dl (100-600).",
	"Fasting blood sugar > 120 mg/dl":       "Gula Darah Puasa > 120 mg/dl (FBS)",
	"Yes (true)":                            "Ya (True)",
	"No (false)":                            "Tidak (False)",
	"Resting ECG result":                    "Hasil EKG Istirahat (Restecg)",
	"0 - Normal":                            "0 - Normal",
	"1 - ST-T wave abnormality":             "1 - Kelainan Gelombang ST-T",
	"2 - Left ventricular hypertrophy":      "2 - Hipertrofi Ventrikel Kiri",
	"Maximum heart rate":                    "Detak Jantung Maksimum (Thalach)",
	"Beats per minute (60-220).":            "Denyut per menit (60-220).",
	"Exercise-induced angina":               "Nyeri Dada akibat Olahraga (Exang)",
	"Yes":                                   "Ya",
	"No":                                    "Tidak",
	"ST depression":                         "Depresi ST (Oldpeak)",
	"ST segment slope":                      "Kemiringan ST (Slope)",
	"0 - Upsloping":                         "0 - Upsloping (Naik)",
	"1 - Flat":                              "1 - Flat (Datar)",
	"2 - Downsloping":                       "2 - Downsloping (Turun)",
	"Major vessels coloured by fluoroscopy": "Jumlah Pembuluh Darah Utama (CA)",
	"Number of major vessels (0-4).":        "Jumlah pembuluh darah yang diwarnai fluoroskopi (0-4).",
	"Thalassemia":                           "Thalassemia (Thal)",
	"0 - Unknown":                           "0 - Unknown",
	"1 - Normal":                            "1 - Normal",
	"2 - Fixed defect":                      "2 - Cacat Tetap",
	"3 - Reversible defect":                 "3 - Cacat Bisa Dipulihkan",
	"ST depression induced by exercise (0.0-6.2).":                           "Nilai depresi ST (0.0 - 6.2).",
	"0: normal, 1: ST-T wave abnormality, 2: left ventricular hypertrophy.": "0: Normal, 1: Kelainan ST-T, 2: Hipertrofi Ventrikel Kiri",
	"0: upsloping, 1: flat, 2: downsloping.":                                 "0: Naik, 1: Datar, 2: Turun",
	"1: normal, 2: fixed defect, 3: reversible defect.":                      "1: Normal, 2: Cacat Tetap, 3: Cacat Bisa Dipulihkan",
}

var builder = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range indonesian {
		b.SetString(language.English, key, key)
		b.SetString(language.Indonesian, key, text)
	}
	return b
}()

var matcher = language.NewMatcher([]language.Tag{language.English, language.Indonesian})

func resolve(lang string) language.Tag {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	if base.String() == "id" {
		return language.Indonesian
	}
	return language.English
}

// NewPrinter returns a printer for lang ("en", "id" or any BCP 47 tag);
// unknown languages fall back to English.
func NewPrinter(lang string) *message.Printer {
	return message.NewPrinter(resolve(lang), message.Catalog(builder))
}

// Translator serves both plain messages and format strings for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

func NewTranslator(lang string) *Translator {
	tag := resolve(lang)
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Text translates a plain message. The key is never parsed as a format, so
// labels may contain '%'.
func (t *Translator) Text(key string) string {
	if t.tag == language.Indonesian {
		if text, ok := indonesian[key]; ok {
			return text
		}
	}
	return key
}

// Sprintf translates format and applies args.
func (t *Translator) Sprintf(format message.Reference, args ...interface{}) string {
	return t.printer.Sprintf(format, args...)
}
