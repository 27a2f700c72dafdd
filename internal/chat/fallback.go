package chat

import (
	"strings"
	"unicode"
)

type topic struct {
	name     string
	keywords []string
	response string
}

// topics is matched in order, narrow topics before broad ones; the first
// topic with a keyword that starts a word of the message wins.
var topics = []topic{
	{
		name:     "insurance",
		keywords: []string{"asuransi", "insurance", "bpjs", "proteksi", "perlindungan"},
		response: "Asuransi melindungi Anda dan keluarga dari risiko kecelakaan dan sakit. Pertimbangkan BPJS Ketenagakerjaan dan BPJS Kesehatan sebagai perlindungan dasar bagi pengemudi.",
	},
	{
		name:     "investment",
		keywords: []string{"investasi", "berinvestasi", "invest", "saham", "reksa dana", "reksadana", "emas", "deposito"},
		response: "Untuk mulai berinvestasi, pertimbangkan reksa dana pasar uang atau emas dengan modal kecil. Buka halaman Keuangan untuk rekomendasi investasi sesuai profil risiko Anda.",
	},
	{
		name:     "safety",
		keywords: []string{"aman", "keamanan", "safety", "safe", "kecelakaan", "accident", "darurat", "emergency"},
		response: "Utamakan keselamatan: patuhi batas kecepatan, hindari menggunakan ponsel saat berkendara, dan pastikan kendaraan dalam kondisi baik sebelum mulai bekerja.",
	},
	{
		name:     "wellness",
		keywords: []string{"lelah", "capek", "stres", "stress", "tidur", "sleep", "tired", "wellness", "kesehatan", "sehat"},
		response: "Kesehatan Anda penting. Istirahatlah setiap 2 jam berkendara, minum air yang cukup, dan isi penilaian kesehatan di halaman Wellness untuk rekomendasi yang lebih personal.",
	},
	{
		name:     "earnings",
		keywords: []string{"pendapatan", "penghasilan", "earning", "income", "gaji", "tarif", "fare", "tip"},
		response: "Untuk melihat pendapatan Anda, buka halaman Pendapatan. Di sana tersedia ringkasan harian, bulanan dan tahunan termasuk tarif dan tip. Pendapatan biasanya lebih tinggi pada jam sibuk pagi dan sore.",
	},
	{
		name:     "analytics",
		keywords: []string{"statistik", "analitik", "analytics", "grafik", "chart", "jarak", "distance", "perjalanan", "trip"},
		response: "Halaman Analitik menampilkan statistik perjalanan Anda: jumlah perjalanan, jarak tempuh dan total pendapatan per hari, bulan dan tahun.",
	},
	{
		name:     "login",
		keywords: []string{"login", "masuk", "daftar", "register", "akun", "account", "password", "kata sandi"},
		response: "Untuk masuk, gunakan email dan kata sandi yang terdaftar. Jika belum punya akun, daftar dengan email Anda lalu masukkan kode verifikasi yang dikirimkan.",
	},
	{
		name:     "traffic",
		keywords: []string{"macet", "lalu lintas", "traffic", "jalan", "rute", "route"},
		response: "Untuk menghindari macet, gunakan aplikasi navigasi dan hindari jam sibuk bila memungkinkan. Manfaatkan waktu sepi untuk istirahat atau perawatan kendaraan.",
	},
	{
		name:     "finance",
		keywords: []string{"keuangan", "uang", "tabungan", "menabung", "hemat", "budget", "anggaran", "finance", "money", "saving", "pengeluaran", "expense"},
		response: "Kelola keuangan dengan memisahkan uang operasional dan pribadi, sisihkan minimal 20% pendapatan untuk tabungan, dan catat pengeluaran harian. Halaman Keuangan memberikan saran yang lebih lengkap.",
	},
}

const defaultResponse = "Terima kasih atas pertanyaan Anda. Saya dapat membantu soal pendapatan, kesehatan, investasi, keuangan, asuransi, keselamatan dan lalu lintas. Silakan ajukan pertanyaan yang lebih spesifik."

// Fallback answers message from the fixed keyword table. The same message
// always gets the same answer.
func Fallback(message string) string {
	if t := match(message); t != nil {
		return t.response
	}
	return defaultResponse
}

// Topic returns the name of the topic Fallback answers message with, or "default".
func Topic(message string) string {
	if t := match(message); t != nil {
		return t.name
	}
	return "default"
}

func match(message string) *topic {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	text := " " + strings.Join(words, " ")
	for i := range topics {
		for _, kw := range topics[i].keywords {
			if strings.Contains(text, " "+kw) {
				return &topics[i]
			}
		}
	}
	return nil
}
