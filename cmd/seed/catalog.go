package main

import "todaylog/internal/model"

var medals = []model.Medal{
	{MedalCode: model.MedalRecovery, MedalName: "회복의 빛", MedalExplain: "번아웃에서 벗어나 평온을 되찾았어요."},
	{MedalCode: "FIRST_DIARY", MedalName: "첫 일기", MedalExplain: "첫 번째 일기를 작성했어요."},
	{MedalCode: "STREAK_7", MedalName: "일주일 연속", MedalExplain: "7일 연속으로 일기를 작성했어요."},
}

var pushMessages = []model.PushMessage{
	{Category: "INACTIVE_3", MsgContent: "3일 동안 못 만났네요. 오늘 하루는 어땠나요?"},
	{Category: "INACTIVE_7", MsgContent: "일주일이나 지났어요. 잠깐이라도 마음을 기록해 보세요."},
	{Category: "INACTIVE_30", MsgContent: "한 달 만이에요. 당신의 이야기가 궁금해요."},
	{Category: "DAILY_ALARM", MsgContent: "오늘 하루를 기록할 시간이에요."},
	{Category: "SPLASH", MsgContent: "오늘도 당신을 기다렸어요."},
	{Category: "SPLASH", MsgContent: "오늘 하루도 수고 많았어요."},
	{Category: "SPLASH", MsgContent: "기록은 마음을 가볍게 해요."},
}

var activities = []model.Activity{
	{ActContent: "10분 산책하기", ActCategory: "OUTDOOR", IsActive: true, IsOutdoor: true, IsEnabled: true},
	{ActContent: "따뜻한 차 한 잔 마시기", ActCategory: "REST", IsEnabled: true},
	{ActContent: "친구에게 안부 연락하기", ActCategory: "SOCIAL", IsSocial: true, IsEnabled: true},
	{ActContent: "5분 스트레칭", ActCategory: "EXERCISE", IsActive: true, IsEnabled: true},
	{ActContent: "좋아하는 음악 듣기", ActCategory: "REST", IsEnabled: true},
	{ActContent: "일찍 잠자리에 들기", ActCategory: "REST", IsEnabled: true},
}
